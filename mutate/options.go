package mutate

import (
	"strings"
	"time"
	"unicode"
)

// MutationMode defines when a write is applied relative to server acknowledgment.
type MutationMode string

const (
	// MutationModePessimistic waits for the server acknowledgment before any
	// cache or UI side effect happens. This is the default.
	MutationModePessimistic MutationMode = "pessimistic"

	// MutationModeOptimistic applies the change to the cache immediately and
	// rolls it back if the request fails.
	MutationModeOptimistic MutationMode = "optimistic"

	// MutationModeUndoable delays the request for a cancellable countdown
	// window before committing.
	MutationModeUndoable MutationMode = "undoable"
)

// LiveMode defines how consumers react to published realtime events.
type LiveMode string

const (
	// LiveModeAuto applies received live events to cached data automatically.
	LiveModeAuto LiveMode = "auto"

	// LiveModeManual surfaces received live events to a callback without
	// touching cached data.
	LiveModeManual LiveMode = "manual"

	// LiveModeOff disables live event handling. This is the default.
	LiveModeOff LiveMode = "off"
)

// RedirectTarget names the page a host application navigates to after an action.
type RedirectTarget = string

// System defaults, applied when neither call-site, convenience-parameter,
// nor ambient context value exists for a field.
const (
	DefaultMutationMode        = MutationModePessimistic
	DefaultUndoableTimeout     = 5 * time.Second
	DefaultOvertimeInterval    = time.Second
	DefaultLiveMode            = LiveModeOff
	DefaultRedirectAfterCreate RedirectTarget = "list"
	DefaultRedirectAfterEdit   RedirectTarget = "list"
	DefaultRedirectAfterClone  RedirectTarget = "edit"
	DefaultRetryCount          = 0
)

// TransformFunc transforms a resource name for display or lookup purposes.
type TransformFunc = func(string) string

// RedirectOptions holds optional per-action redirect targets.
// Each sub-field resolves independently of its siblings.
type RedirectOptions struct {
	AfterCreate *RedirectTarget
	AfterClone  *RedirectTarget
	AfterEdit   *RedirectTarget
}

// TextTransformerOptions holds optional text transform overrides.
// A nil function means "not set" and falls through to the next tier.
type TextTransformerOptions struct {
	Humanize TransformFunc
	Plural   TransformFunc
	Singular TransformFunc
}

// Options is the call-site option bag. Every field is optional; nil fields
// fall through to the convenience parameter, the ambient context value,
// and finally the system default - independently per field.
type Options struct {
	MutationMode                *MutationMode
	UndoableTimeout             *time.Duration
	SyncWithLocation            *bool
	WarnWhenUnsavedChanges      *bool
	LiveMode                    *LiveMode
	Redirect                    RedirectOptions
	OvertimeInterval            *time.Duration
	TextTransformers            TextTransformerOptions
	DisableServerSideValidation *bool
	ProjectID                   *string
	RetryCount                  *int
}

// Params are the named convenience parameters that may be passed alongside
// the option bag. They rank below an explicit call-site option and above
// the ambient context value. Redirect targets and text transformers are
// deliberately not accepted here.
type Params struct {
	MutationMode           *MutationMode
	UndoableTimeout        *time.Duration
	SyncWithLocation       *bool
	WarnWhenUnsavedChanges *bool
	LiveMode               *LiveMode
}

// ContextOptions are the process-wide ambient options, set once at
// application start and passed explicitly to mutation call sites.
type ContextOptions struct {
	MutationMode                *MutationMode
	UndoableTimeout             *time.Duration
	SyncWithLocation            *bool
	WarnWhenUnsavedChanges      *bool
	LiveMode                    *LiveMode
	Redirect                    RedirectOptions
	OvertimeInterval            *time.Duration
	TextTransformers            TextTransformerOptions
	DisableServerSideValidation *bool
	ProjectID                   *string
	RetryCount                  *int
}

// RedirectConfig is the fully resolved redirect configuration.
type RedirectConfig struct {
	AfterCreate RedirectTarget
	AfterClone  RedirectTarget
	AfterEdit   RedirectTarget
}

// TextTransformers is the fully resolved set of text transform functions.
// All functions are non-nil after resolution.
type TextTransformers struct {
	Humanize TransformFunc
	Plural   TransformFunc
	Singular TransformFunc
}

// ResolvedOptions is the result of option resolution. Every field has a
// defined value; no field may remain unset.
type ResolvedOptions struct {
	MutationMode                MutationMode
	UndoableTimeout             time.Duration
	SyncWithLocation            bool
	WarnWhenUnsavedChanges      bool
	LiveMode                    LiveMode
	Redirect                    RedirectConfig
	OvertimeInterval            time.Duration
	TextTransformers            TextTransformers
	DisableServerSideValidation bool
	ProjectID                   string
	RetryCount                  int
}

// Ptr returns a pointer to v, for populating optional option fields inline.
func Ptr[T any](v T) *T {
	return &v
}

// ResolveOptions merges the call-site option bag, the named convenience
// parameters, and the ambient context options into a fully populated
// ResolvedOptions.
//
// Resolution order per field, highest priority first:
//
//	explicit call-site option > convenience parameter > ambient context > system default
//
// The fallback is applied independently per field, never as an
// all-or-nothing object merge, so a caller can override exactly one field
// while inheriting the rest. Nested redirect and text-transformer
// sub-fields resolve independently as well.
//
// ResolveOptions is pure: it has no side effects and no error conditions.
// Absent inputs fall through to defaults.
func ResolveOptions(callSite Options, params Params, ambient ContextOptions) ResolvedOptions {
	return ResolvedOptions{
		MutationMode:                firstSet(DefaultMutationMode, callSite.MutationMode, params.MutationMode, ambient.MutationMode),
		UndoableTimeout:             firstSet(DefaultUndoableTimeout, callSite.UndoableTimeout, params.UndoableTimeout, ambient.UndoableTimeout),
		SyncWithLocation:            firstSet(false, callSite.SyncWithLocation, params.SyncWithLocation, ambient.SyncWithLocation),
		WarnWhenUnsavedChanges:      firstSet(false, callSite.WarnWhenUnsavedChanges, params.WarnWhenUnsavedChanges, ambient.WarnWhenUnsavedChanges),
		LiveMode:                    firstSet(DefaultLiveMode, callSite.LiveMode, params.LiveMode, ambient.LiveMode),
		Redirect:                    resolveRedirect(callSite.Redirect, ambient.Redirect),
		OvertimeInterval:            firstSet(DefaultOvertimeInterval, callSite.OvertimeInterval, ambient.OvertimeInterval),
		TextTransformers:            resolveTextTransformers(callSite.TextTransformers, ambient.TextTransformers),
		DisableServerSideValidation: firstSet(false, callSite.DisableServerSideValidation, ambient.DisableServerSideValidation),
		ProjectID:                   firstSet("", callSite.ProjectID, ambient.ProjectID),
		RetryCount:                  firstSet(DefaultRetryCount, callSite.RetryCount, ambient.RetryCount),
	}
}

// firstSet returns the first non-nil candidate, or the fallback when all
// candidates are nil. Candidates are ordered highest priority first.
func firstSet[T any](fallback T, candidates ...*T) T {
	for _, candidate := range candidates {
		if candidate != nil {
			return *candidate
		}
	}

	return fallback
}

func resolveRedirect(callSite RedirectOptions, ambient RedirectOptions) RedirectConfig {
	return RedirectConfig{
		AfterCreate: firstSet(DefaultRedirectAfterCreate, callSite.AfterCreate, ambient.AfterCreate),
		AfterClone:  firstSet(DefaultRedirectAfterClone, callSite.AfterClone, ambient.AfterClone),
		AfterEdit:   firstSet(DefaultRedirectAfterEdit, callSite.AfterEdit, ambient.AfterEdit),
	}
}

func resolveTextTransformers(callSite TextTransformerOptions, ambient TextTransformerOptions) TextTransformers {
	return TextTransformers{
		Humanize: firstSetFunc(HumanizeDefault, callSite.Humanize, ambient.Humanize),
		Plural:   firstSetFunc(PluralDefault, callSite.Plural, ambient.Plural),
		Singular: firstSetFunc(SingularDefault, callSite.Singular, ambient.Singular),
	}
}

// firstSetFunc is the function-typed variant of firstSet, since func values
// signal "not set" with nil directly instead of through a pointer.
func firstSetFunc(fallback TransformFunc, candidates ...TransformFunc) TransformFunc {
	for _, candidate := range candidates {
		if candidate != nil {
			return candidate
		}
	}

	return fallback
}

// HumanizeDefault turns a resource name like "blog_posts" into "Blog posts".
func HumanizeDefault(name string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	replaced = strings.TrimSpace(replaced)

	if replaced == "" {
		return replaced
	}

	runes := []rune(replaced)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}

// PluralDefault applies basic English pluralization rules to a resource name.
func PluralDefault(name string) string {
	switch {
	case name == "":
		return name
	case strings.HasSuffix(name, "y") && !hasVowelBeforeSuffix(name, "y"):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(name, "s"),
		strings.HasSuffix(name, "x"),
		strings.HasSuffix(name, "z"),
		strings.HasSuffix(name, "ch"),
		strings.HasSuffix(name, "sh"):
		return name + "es"
	default:
		return name + "s"
	}
}

// SingularDefault applies basic English singularization rules to a resource name.
func SingularDefault(name string) string {
	switch {
	case strings.HasSuffix(name, "ies") && len(name) > 3:
		return name[:len(name)-3] + "y"
	case strings.HasSuffix(name, "ches"),
		strings.HasSuffix(name, "shes"),
		strings.HasSuffix(name, "xes"),
		strings.HasSuffix(name, "zes"),
		strings.HasSuffix(name, "ses"):
		return name[:len(name)-2]
	case strings.HasSuffix(name, "s") && !strings.HasSuffix(name, "ss"):
		return name[:len(name)-1]
	default:
		return name
	}
}

func hasVowelBeforeSuffix(name string, suffix string) bool {
	trimmed := strings.TrimSuffix(name, suffix)
	if trimmed == "" {
		return false
	}

	return strings.ContainsRune("aeiou", rune(trimmed[len(trimmed)-1]))
}
