package nerdgraph

import (
	"net/http"
	"strings"
)

type errStatusNotOK int

func (e errStatusNotOK) Error() string {
	return "non-2xx HTTP status code: " + http.StatusText(int(e))
}

type errPathNotFound string

func (e errPathNotFound) Error() string {
	return "JSON path not found in response: " + string(e)
}

type errGraphQL []string

func (e errGraphQL) Error() string {
	return "graphql errors: " + strings.Join(e, "; ")
}
