package mutate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilimnik/refine/mutate"
)

func Test_ResolveOptions_SystemDefaults(t *testing.T) {
	resolved := mutate.ResolveOptions(mutate.Options{}, mutate.Params{}, mutate.ContextOptions{})

	assert.Equal(t, mutate.MutationModePessimistic, resolved.MutationMode)
	assert.Equal(t, 5*time.Second, resolved.UndoableTimeout)
	assert.False(t, resolved.SyncWithLocation)
	assert.False(t, resolved.WarnWhenUnsavedChanges)
	assert.Equal(t, mutate.LiveModeOff, resolved.LiveMode)
	assert.Equal(t, "list", resolved.Redirect.AfterCreate)
	assert.Equal(t, "list", resolved.Redirect.AfterEdit)
	assert.Equal(t, "edit", resolved.Redirect.AfterClone)
	assert.Equal(t, time.Second, resolved.OvertimeInterval)
	assert.False(t, resolved.DisableServerSideValidation)
	assert.Empty(t, resolved.ProjectID)
	assert.Zero(t, resolved.RetryCount)
	assert.NotNil(t, resolved.TextTransformers.Humanize)
	assert.NotNil(t, resolved.TextTransformers.Plural)
	assert.NotNil(t, resolved.TextTransformers.Singular)
}

//nolint:funlen
func Test_ResolveOptions_PerFieldPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		callSite mutate.Options
		params   mutate.Params
		ambient  mutate.ContextOptions
		validate func(t *testing.T, resolved mutate.ResolvedOptions)
	}{
		{
			name:     "call_site_option_wins_over_parameter_and_context",
			callSite: mutate.Options{MutationMode: mutate.Ptr(mutate.MutationModeOptimistic)},
			params:   mutate.Params{MutationMode: mutate.Ptr(mutate.MutationModeUndoable)},
			ambient:  mutate.ContextOptions{MutationMode: mutate.Ptr(mutate.MutationModePessimistic)},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.Equal(t, mutate.MutationModeOptimistic, resolved.MutationMode)
			},
		},
		{
			name:    "parameter_wins_over_context",
			params:  mutate.Params{UndoableTimeout: mutate.Ptr(2 * time.Second)},
			ambient: mutate.ContextOptions{UndoableTimeout: mutate.Ptr(9 * time.Second)},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.Equal(t, 2*time.Second, resolved.UndoableTimeout)
			},
		},
		{
			name:    "context_wins_over_default",
			ambient: mutate.ContextOptions{LiveMode: mutate.Ptr(mutate.LiveModeAuto)},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.Equal(t, mutate.LiveModeAuto, resolved.LiveMode)
			},
		},
		{
			name:     "single_field_override_inherits_the_rest",
			callSite: mutate.Options{SyncWithLocation: mutate.Ptr(true)},
			ambient: mutate.ContextOptions{
				MutationMode:    mutate.Ptr(mutate.MutationModeUndoable),
				UndoableTimeout: mutate.Ptr(7 * time.Second),
			},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.True(t, resolved.SyncWithLocation)
				assert.Equal(t, mutate.MutationModeUndoable, resolved.MutationMode)
				assert.Equal(t, 7*time.Second, resolved.UndoableTimeout)
				assert.False(t, resolved.WarnWhenUnsavedChanges)
			},
		},
		{
			name: "option_bag_and_parameter_resolve_from_different_tiers",
			callSite: mutate.Options{
				MutationMode: mutate.Ptr(mutate.MutationModeOptimistic),
			},
			params: mutate.Params{
				UndoableTimeout: mutate.Ptr(8000 * time.Millisecond),
			},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.Equal(t, mutate.MutationModeOptimistic, resolved.MutationMode)
				assert.Equal(t, 8000*time.Millisecond, resolved.UndoableTimeout)
			},
		},
		{
			name: "scalar_fields_from_all_tiers_at_once",
			callSite: mutate.Options{
				ProjectID:  mutate.Ptr("proj-a"),
				RetryCount: mutate.Ptr(2),
			},
			params: mutate.Params{
				WarnWhenUnsavedChanges: mutate.Ptr(true),
			},
			ambient: mutate.ContextOptions{
				ProjectID:                   mutate.Ptr("proj-b"),
				DisableServerSideValidation: mutate.Ptr(true),
			},
			validate: func(t *testing.T, resolved mutate.ResolvedOptions) {
				assert.Equal(t, "proj-a", resolved.ProjectID)
				assert.Equal(t, 2, resolved.RetryCount)
				assert.True(t, resolved.WarnWhenUnsavedChanges)
				assert.True(t, resolved.DisableServerSideValidation)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, mutate.ResolveOptions(tt.callSite, tt.params, tt.ambient))
		})
	}
}

func Test_ResolveOptions_NestedFieldsResolveIndependently(t *testing.T) {
	callSite := mutate.Options{
		Redirect: mutate.RedirectOptions{AfterCreate: mutate.Ptr[mutate.RedirectTarget]("show")},
	}

	resolved := mutate.ResolveOptions(callSite, mutate.Params{}, mutate.ContextOptions{})

	assert.Equal(t, "show", resolved.Redirect.AfterCreate)
	assert.Equal(t, "list", resolved.Redirect.AfterEdit)
	assert.Equal(t, "edit", resolved.Redirect.AfterClone)
}

func Test_ResolveOptions_NestedFieldsFallThroughToContext(t *testing.T) {
	callSite := mutate.Options{
		Redirect: mutate.RedirectOptions{AfterEdit: mutate.Ptr[mutate.RedirectTarget]("show")},
	}
	ambient := mutate.ContextOptions{
		Redirect: mutate.RedirectOptions{
			AfterEdit:   mutate.Ptr[mutate.RedirectTarget]("create"),
			AfterCreate: mutate.Ptr[mutate.RedirectTarget]("edit"),
		},
	}

	resolved := mutate.ResolveOptions(callSite, mutate.Params{}, ambient)

	assert.Equal(t, "show", resolved.Redirect.AfterEdit, "call-site sub-field must win")
	assert.Equal(t, "edit", resolved.Redirect.AfterCreate, "context sub-field must apply")
	assert.Equal(t, "edit", resolved.Redirect.AfterClone, "untouched sub-field keeps its default")
}

func Test_ResolveOptions_TextTransformersResolveIndependently(t *testing.T) {
	upper := func(s string) string { return s + "!" }

	callSite := mutate.Options{
		TextTransformers: mutate.TextTransformerOptions{Plural: upper},
	}

	resolved := mutate.ResolveOptions(callSite, mutate.Params{}, mutate.ContextOptions{})

	assert.Equal(t, "post!", resolved.TextTransformers.Plural("post"))
	assert.Equal(t, "Blog posts", resolved.TextTransformers.Humanize("blog_posts"), "sibling keeps its default")
}

func Test_DefaultTextTransformers(t *testing.T) {
	tests := []struct {
		name      string
		transform mutate.TransformFunc
		input     string
		expected  string
	}{
		{name: "humanize_underscores", transform: mutate.HumanizeDefault, input: "blog_posts", expected: "Blog posts"},
		{name: "humanize_dashes", transform: mutate.HumanizeDefault, input: "blog-posts", expected: "Blog posts"},
		{name: "humanize_empty", transform: mutate.HumanizeDefault, input: "", expected: ""},
		{name: "plural_simple", transform: mutate.PluralDefault, input: "post", expected: "posts"},
		{name: "plural_consonant_y", transform: mutate.PluralDefault, input: "category", expected: "categories"},
		{name: "plural_vowel_y", transform: mutate.PluralDefault, input: "day", expected: "days"},
		{name: "plural_sibilant", transform: mutate.PluralDefault, input: "box", expected: "boxes"},
		{name: "singular_simple", transform: mutate.SingularDefault, input: "posts", expected: "post"},
		{name: "singular_ies", transform: mutate.SingularDefault, input: "categories", expected: "category"},
		{name: "singular_es", transform: mutate.SingularDefault, input: "boxes", expected: "box"},
		{name: "singular_untouched", transform: mutate.SingularDefault, input: "person", expected: "person"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.transform(tt.input))
		})
	}
}
