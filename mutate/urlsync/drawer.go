package urlsync

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kilimnik/refine/mutate"
)

const (
	keyPrefix  = "drawer-"
	openSuffix = "[open]"
	idSuffix   = "[id]"
)

// DrawerState is the URL-synced state of one edit drawer: whether it is open
// and which record it targets.
type DrawerState struct {
	Resource mutate.ResourceName
	Action   string
	Open     bool
	ID       mutate.RecordID
}

func (s DrawerState) openKey() string {
	return fmt.Sprintf("%s%s-%s%s", keyPrefix, s.Resource, s.Action, openSuffix)
}

func (s DrawerState) idKey() string {
	return fmt.Sprintf("%s%s-%s%s", keyPrefix, s.Resource, s.Action, idSuffix)
}

// Encode writes the drawer state into the given query values, replacing any
// previous state for the same resource and action. Unrelated parameters are
// left untouched.
func (s DrawerState) Encode(values url.Values) {
	values.Set(s.openKey(), strconv.FormatBool(s.Open))

	if s.ID != "" {
		values.Set(s.idKey(), s.ID)
		return
	}

	values.Del(s.idKey())
}

// Decode reads the drawer state for the given resource and action from the
// query values. The second return value reports whether any state was
// present.
func Decode(values url.Values, resource mutate.ResourceName, action string) (DrawerState, bool) {
	state := DrawerState{Resource: resource, Action: action}

	openValue := values.Get(state.openKey())
	idValue := values.Get(state.idKey())

	if openValue == "" && idValue == "" {
		return DrawerState{}, false
	}

	state.Open = openValue == "true"
	state.ID = idValue

	return state, true
}

// DecodeAll extracts every drawer state found in the query values, ignoring
// parameters that do not follow the drawer key shape.
func DecodeAll(values url.Values) []DrawerState {
	type drawerKey struct {
		resource mutate.ResourceName
		action   string
	}

	found := make(map[drawerKey]*DrawerState)
	order := make([]drawerKey, 0)

	stateFor := func(key drawerKey) *DrawerState {
		if state, ok := found[key]; ok {
			return state
		}

		state := &DrawerState{Resource: key.resource, Action: key.action}
		found[key] = state
		order = append(order, key)

		return state
	}

	for param := range values {
		resource, action, suffix, ok := splitKey(param)
		if !ok {
			continue
		}

		state := stateFor(drawerKey{resource: resource, action: action})

		switch suffix {
		case openSuffix:
			state.Open = values.Get(param) == "true"
		case idSuffix:
			state.ID = values.Get(param)
		}
	}

	states := make([]DrawerState, 0, len(order))
	for _, key := range order {
		states = append(states, *found[key])
	}

	return states
}

// splitKey dissects a query parameter name into resource, action, and
// suffix. Resource names may contain dashes; the action is everything after
// the last dash.
func splitKey(param string) (mutate.ResourceName, string, string, bool) {
	rest, hasPrefix := strings.CutPrefix(param, keyPrefix)
	if !hasPrefix {
		return "", "", "", false
	}

	var suffix string

	switch {
	case strings.HasSuffix(rest, openSuffix):
		suffix = openSuffix
	case strings.HasSuffix(rest, idSuffix):
		suffix = idSuffix
	default:
		return "", "", "", false
	}

	rest = strings.TrimSuffix(rest, suffix)

	lastDash := strings.LastIndex(rest, "-")
	if lastDash <= 0 || lastDash == len(rest)-1 {
		return "", "", "", false
	}

	return rest[:lastDash], rest[lastDash+1:], suffix, true
}
