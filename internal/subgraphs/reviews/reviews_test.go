package reviews

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	gql "github.com/hanpama/lambdagraph/internal/gql"
)

func exec(t *testing.T, body string) string {
	t.Helper()
	s, err := Schema()
	require.NoError(t, err)
	req, err := gql.ParseRequest([]byte(body))
	require.NoError(t, err)
	out, err := s.Execute(context.Background(), req).Marshal()
	require.NoError(t, err)
	return string(out)
}

func TestReview(t *testing.T) {
	got := exec(t, `{"query":"{ review(id: \"3\") { body author { id } product { id } } }"}`)
	require.JSONEq(t, `{"data":{"review":{"body":"Never slept better than with the tomato pillow","author":{"id":"2"},"product":{"id":"3"}}}}`, got)
}

func TestReviewsAreUnique(t *testing.T) {
	got := exec(t, `{"query":"{ reviews { id } }"}`)
	require.JSONEq(t, `{"data":{"reviews":[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"},{"id":"5"}]}}`, got)
}

func TestUserReviews(t *testing.T) {
	body := `{"query":"query($r: [_Any!]!) { _entities(representations: $r) { ... on User { reviews { id } } } }",
		"variables":{"r":[{"__typename":"User","id":"1"},{"__typename":"User","id":"4"}]}}`
	require.JSONEq(t, `{"data":{"_entities":[{"reviews":[{"id":"1"},{"id":"2"}]},{"reviews":[]}]}}`, exec(t, body))
}

func TestProductReviewsFilterByProduct(t *testing.T) {
	body := `{"query":"query($r: [_Any!]!) { _entities(representations: $r) { ... on Product { reviews { body } } } }",
		"variables":{"r":[{"__typename":"Product","id":"1"}]}}`
	require.JSONEq(t, `{"data":{"_entities":[{"reviews":[{"body":"Amazing avocado plushie!"},{"body":"Love the plushie!"}]}]}}`, exec(t, body))
}

func TestReviewEntity(t *testing.T) {
	body := `{"query":"query($r: [_Any!]!) { _entities(representations: $r) { ... on Review { body } } }",
		"variables":{"r":[{"__typename":"Review","id":"5"},{"__typename":"Review","id":"6"}]}}`
	require.JSONEq(t, `{"data":{"_entities":[{"body":"Love the plushie!"},null]}}`, exec(t, body))
}
