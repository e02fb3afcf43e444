package actions

import (
	"context"
	"fmt"

	"github.com/getmockd/clappy/pkg/args"
	"github.com/getmockd/clappy/pkg/session"
)

var stateSchema = args.Schema{
	args.Pick("collection", string(session.CollectionDefinition), string(session.CollectionToken)),
	args.APIID("apiId"),
	args.EnvID("envId"),
	args.Object("objValue"),
	args.Rest("path", "value"),
}

// state reads the session state, or writes one value into it.
//
//	state                               whole state
//	state theme.showJsonQuotes          one value
//	state definition foo prod baseUrl   one definition
//	state token client_credentials.value abc
func (r *Registry) state(_ context.Context, s *session.Session, in ...any) (*session.Output, error) {
	f, err := args.Classify(in, stateSchema, s)
	if err != nil {
		return nil, err
	}
	c := session.Collection(f.String("collection"))
	apiID, envID := s.APIID, s.EnvID
	if f.Has("apiId") {
		apiID = f.String("apiId")
	}
	if f.Has("envId") {
		envID = f.String("envId")
	}
	if c != session.CollectionRoot && (apiID == "" || envID == "") {
		return nil, precondition("select or name an API and environment first")
	}

	path := f.String("path")
	value, hasValue := f["objValue"]
	if !hasValue {
		value, hasValue = f["value"]
	}
	if path == "" || !hasValue {
		v, err := s.ReadState(c, apiID, envID, path)
		if err != nil {
			return nil, err
		}
		return &session.Output{Result: v}, nil
	}

	if err := s.WriteState(c, apiID, envID, path, value); err != nil {
		return nil, err
	}
	var notify string
	switch c {
	case session.CollectionDefinition:
		notify = fmt.Sprintf("Saved new %s definition for %s in %s environment.", path, apiID, envID)
	case session.CollectionToken:
		notify = fmt.Sprintf("Saved new %s token for %s in %s environment.", path, apiID, envID)
	default:
		notify = fmt.Sprintf("Saved new value for %s.", path)
	}
	return &session.Output{Notify: notify}, nil
}
