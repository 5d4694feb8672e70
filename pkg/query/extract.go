package query

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type Query struct {
	Query string
	Args  []any
}

func (q Query) String() string {
	return q.Query
}

type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}

var queryCommentRegex = regexp.MustCompile(`(?m)(?s)\/\*.*?\*\/|(^|\s)--.*?\n`)

type renderer interface {
	Render(string) (string, error)
}

// FileQuerySplitterExtractor reads a SQL file, renders it and splits it into one query per statement.
type FileQuerySplitterExtractor struct {
	Fs       afero.Fs
	Renderer renderer
}

func (f FileQuerySplitterExtractor) ExtractQueriesFromFile(filepath string) ([]*Query, error) {
	contents, err := afero.ReadFile(f.Fs, filepath)
	if err != nil {
		return nil, errors.Wrap(err, "could not read file")
	}

	return f.ExtractQueriesFromString(string(contents))
}

func (f FileQuerySplitterExtractor) ExtractQueriesFromString(content string) ([]*Query, error) {
	cleanedUpQueries := queryCommentRegex.ReplaceAllLiteralString(content+"\n", "\n")
	rendered, err := f.Renderer.Render(cleanedUpQueries)
	if err != nil {
		return nil, errors.Wrap(err, "could not render file while extracting the queries from it")
	}

	return splitQueries(rendered), nil
}

func splitQueries(fileContent string) []*Query {
	queries := make([]*Query, 0)

	for _, query := range strings.Split(fileContent, ";") {
		query = strings.TrimSpace(query)
		if len(query) == 0 {
			continue
		}

		queryLines := strings.Split(query, "\n")
		cleanQueryRows := make([]string, 0, len(queryLines))
		for _, line := range queryLines {
			if len(strings.TrimSpace(line)) == 0 {
				continue
			}

			cleanQueryRows = append(cleanQueryRows, line)
		}

		cleanQuery := strings.TrimSpace(strings.Join(cleanQueryRows, "\n"))
		lowerCaseVersion := strings.ToLower(cleanQuery)
		if strings.HasPrefix(lowerCaseVersion, "use") {
			continue
		}

		queries = append(queries, &Query{
			Query: cleanQuery,
		})
	}

	return queries
}
