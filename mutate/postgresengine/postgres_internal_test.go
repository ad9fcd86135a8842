package postgresengine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilimnik/refine/mutate"
)

func Test_BuildUpdateQuery_SingleColumn(t *testing.T) {
	p := Provider{idColumn: defaultIDColumn}

	sqlQuery, err := p.buildUpdateQuery("posts", []mutate.RecordID{"1", "2"}, mutate.Values{"status": "published"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sqlQuery, `UPDATE "posts" SET`), sqlQuery)
	assert.Contains(t, sqlQuery, `"status"='published'`)
	assert.Contains(t, sqlQuery, `"id" IN ('1', '2')`)
	assert.Contains(t, sqlQuery, `RETURNING row_to_json(posts.*)`)
}

func Test_BuildUpdateQuery_MultipleColumns(t *testing.T) {
	p := Provider{idColumn: defaultIDColumn}

	sqlQuery, err := p.buildUpdateQuery(
		"posts",
		[]mutate.RecordID{"1"},
		mutate.Values{"status": "published", "views": 42},
	)

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"status"='published'`)
	assert.Contains(t, sqlQuery, `"views"=42`)
}

func Test_BuildUpdateQuery_CustomIDColumn(t *testing.T) {
	p := Provider{idColumn: "post_id"}

	sqlQuery, err := p.buildUpdateQuery("posts", []mutate.RecordID{"1"}, mutate.Values{"status": "published"})

	require.NoError(t, err)
	assert.Contains(t, sqlQuery, `"post_id" IN ('1')`)
}

func Test_TableFor_Resolution(t *testing.T) {
	p := Provider{tables: map[mutate.ResourceName]string{"posts": "blog_posts"}}

	tests := []struct {
		name     string
		resource mutate.ResourceName
		meta     mutate.Metadata
		expected string
	}{
		{name: "metadata_overrides_everything", resource: "posts", meta: mutate.Metadata{"table": "archived_posts"}, expected: "archived_posts"},
		{name: "mapping_overrides_resource_name", resource: "posts", meta: nil, expected: "blog_posts"},
		{name: "resource_name_as_fallback", resource: "comments", meta: nil, expected: "comments"},
		{name: "non_string_metadata_is_ignored", resource: "comments", meta: mutate.Metadata{"table": 42}, expected: "comments"},
		{name: "empty_string_metadata_is_ignored", resource: "comments", meta: mutate.Metadata{"table": ""}, expected: "comments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.tableFor(tt.resource, tt.meta))
		})
	}
}

func Test_Distinct_PreservesFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(
		t,
		[]mutate.RecordID{"1", "2", "3"},
		distinct([]mutate.RecordID{"1", "2", "1", "3", "2"}),
	)
}

func Test_ValidateUpdateResult(t *testing.T) {
	p := Provider{}

	t.Run("all_records_updated", func(t *testing.T) {
		err := p.validateUpdateResult(
			context.Background(),
			[]mutate.Record{{"id": "1"}, {"id": "2"}},
			[]mutate.RecordID{"1", "2"},
			"posts",
		)
		assert.NoError(t, err)
	})

	t.Run("missing_records", func(t *testing.T) {
		err := p.validateUpdateResult(
			context.Background(),
			[]mutate.Record{{"id": "1"}},
			[]mutate.RecordID{"1", "2"},
			"posts",
		)
		assert.ErrorIs(t, err, mutate.ErrRecordsNotFound)
	})
}
