package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

// ValidationError reports a malformed or type-mismatched ChangesPayload.
// Raised at the boundary before any merge is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid changes payload: " + e.Reason
}

// ParseChanges decodes a raw front-end changes document. A wrong type for a
// known field (or unparseable JSON) yields a ValidationError; unknown fields
// are ignored, matching the tolerant front-end contract.
func ParseChanges(raw []byte) (*model.ChangesPayload, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &model.ChangesPayload{}, nil
	}
	var changes model.ChangesPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&changes); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return &changes, nil
}

// Merge overlays a ChangesPayload on persisted state to produce the
// authoritative MergedProfile. Shallow field-level override: any field
// present (non-nil) in a changes section replaces the persisted value; fields
// absent from changes retain the persisted value; an absent persisted record
// contributes nothing. Merging an empty payload is the identity.
func Merge(client *model.ClientProfile, suit *model.SuitabilityProfile, changes *model.ChangesPayload) model.MergedProfile {
	var merged model.MergedProfile

	if client != nil {
		merged.ClientID = client.ClientID
		merged.Profile = client.Profile
		merged.Goals = client.Goals
	}
	if suit != nil {
		if merged.ClientID == "" {
			merged.ClientID = suit.ClientID
		}
		merged.Suitability = suit.Suitability
	}

	if changes != nil {
		applyPatch(&merged.Suitability, changes.Suitability)
		applyPatch(&merged.Goals, changes.ClientGoals)
		applyPatch(&merged.Profile, changes.ClientProfile)
		merged.SectionsReceived = changes.SectionsPresent()
	}

	return merged
}

// applyPatch copies every non-nil pointer or slice field of patch into base.
// One level only: a present field fully replaces the prior value, including
// any nested content.
func applyPatch[T any](base *T, patch *T) {
	if patch == nil {
		return
	}
	bv := reflect.ValueOf(base).Elem()
	pv := reflect.ValueOf(patch).Elem()
	for i := 0; i < bv.NumField(); i++ {
		f := pv.Field(i)
		switch f.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Map:
			if !f.IsNil() {
				bv.Field(i).Set(f)
			}
		default:
			panic(fmt.Sprintf("profile: patch field %s.%s is not optional", bv.Type().Name(), bv.Type().Field(i).Name))
		}
	}
}
