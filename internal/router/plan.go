package router

import (
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// Target is the planned output of one document.
type Target struct {
	File        string
	Route       string
	Destination string
}

// Plan routes every file and verifies that the mapping is injective.
// A collision is a fatal configuration fault naming both documents.
func Plan(r Router, outputRoot string, files []string) ([]Target, error) {
	targets := make([]Target, 0, len(files))
	owners := make(map[string]string, len(files))
	for _, file := range files {
		route, err := r.Generate(file)
		if err != nil {
			return nil, err
		}
		dest := Destination(outputRoot, route)
		if other, taken := owners[dest]; taken {
			return nil, errors.ConfigError("duplicate destination path").
				WithCause(ErrDuplicateDestination).
				WithContext("destination", dest).
				WithContext("documents", []string{other, file}).
				Build()
		}
		owners[dest] = file
		targets = append(targets, Target{File: file, Route: route, Destination: dest})
	}
	return targets, nil
}
