package adapter

import (
	"encoding/json"
	"strings"
)

const graphiqlTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>GraphiQL</title>
  <style>
    body { height: 100%; margin: 0; width: 100%; overflow: hidden; }
    #graphiql { height: 100vh; }
  </style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: ENDPOINT });
    ReactDOM.createRoot(document.getElementById("graphiql")).render(
      React.createElement(GraphiQL, { fetcher: fetcher, defaultEditorToolbarOpen: true })
    );
  </script>
</body>
</html>
`

// graphiqlPage renders the IDE page pointed at endpoint. json.Marshal escapes
// <, > and & so the endpoint cannot close the script element.
func graphiqlPage(endpoint string) []byte {
	quoted, _ := json.Marshal(endpoint)
	return []byte(strings.Replace(graphiqlTemplate, "ENDPOINT", string(quoted), 1))
}
