package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// this file contains functions to handle the registry import/export format.
// It should remain human readable, single file and be easy to merge.

// Import reads a Registry from r.
//
// The format is a json array of securities, in registration order. A security
// is a json object with the optional properties 'name', 'isin', 'wkn',
// 'ticker' and 'currency'.
func Import(r io.Reader) (*Registry, error) {
	var content []*Security
	if err := json.NewDecoder(r).Decode(&content); err != nil {
		return nil, fmt.Errorf("cannot parse security registry: %w", err)
	}
	var errs []error
	for i, sec := range content {
		if sec == nil {
			errs = append(errs, fmt.Errorf("security #%d is null", i))
			continue
		}
		if err := sec.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("security #%d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return NewRegistry(content...), nil
}

// Export writes r to w in the format read by Import.
func (r *Registry) Export(w io.Writer) error {
	content := r.All()
	if content == nil {
		content = []*Security{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(content); err != nil {
		return fmt.Errorf("cannot write security registry: %w", err)
	}
	return nil
}
