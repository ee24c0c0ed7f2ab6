package graphql

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoSchema(t *testing.T) graphql.Schema {
	t.Helper()
	schema, err := NewSchema(graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"echo": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{"msg": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Args["msg"], nil
				},
			},
		},
	}))
	require.NoError(t, err)
	return schema
}

func TestHandlerPost(t *testing.T) {
	rec := httptest.NewRecorder()
	body := `{"query":"query($m:String){ echo(msg:$m) }","variables":{"m":"hi"}}`
	Handler(echoSchema(t))(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"echo":"hi"}}`, rec.Body.String())
}

func TestHandlerGet(t *testing.T) {
	rec := httptest.NewRecorder()
	target := "/graphql?query=" + url.QueryEscape(`{ echo(msg:"yo") }`)
	Handler(echoSchema(t))(rec, httptest.NewRequest(http.MethodGet, target, nil))

	assert.JSONEq(t, `{"data":{"echo":"yo"}}`, rec.Body.String())
}

func TestHandlerRejectsEmptyQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(echoSchema(t))(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
