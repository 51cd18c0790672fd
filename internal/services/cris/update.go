package cris

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"research2crossref/internal/services"
)

// AppendIdentifier records doi on the CRIS publication. The current record
// is fetched fresh and written back whole so concurrent edits to other
// fields survive; fields this client does not model pass through untouched.
func (c *Client) AppendIdentifier(ctx context.Context, id, doi string) error {
	id = strings.TrimSpace(id)
	doi = strings.TrimSpace(doi)
	if id == "" || doi == "" {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "publication id and doi are required", nil)
	}
	if c.baseURL == "" {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "cris api url is not configured", nil)
	}
	target := c.baseURL + url.PathEscape(id)

	body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "fetch current record", err)
	}
	raw, err := decodeRaw(body)
	if err != nil {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "decode current record", err)
	}

	stamp := c.now().UTC().Format(updatedLayout)
	if err := appendDOI(raw, doi, c.cfg.DOIIdentifierTypeID, c.cfg.UpdatedBy, stamp); err != nil {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "mutate record", err)
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "encode record", err)
	}
	if _, err := c.do(ctx, http.MethodPut, target, payload); err != nil {
		return services.Wrap(services.ErrReconciliation, "cris", "append identifier", "write record", err)
	}
	return nil
}

func decodeRaw(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("empty record")
	}
	return raw, nil
}

// appendDOI mutates raw in place. An identical DOI already present is left
// alone so reconciliation reruns stay idempotent.
func appendDOI(raw map[string]any, doi, typeID, updatedBy, stamp string) error {
	var identifiers []any
	switch existing := raw["Identifiers"].(type) {
	case nil:
	case []any:
		identifiers = existing
	default:
		return fmt.Errorf("unexpected Identifiers type %T", existing)
	}

	for _, item := range identifiers {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		value, _ := entry["Value"].(string)
		if !strings.EqualFold(strings.TrimSpace(value), doi) {
			continue
		}
		if t, ok := entry["Type"].(map[string]any); ok {
			if tid, _ := t["Id"].(string); tid == typeID {
				return nil
			}
		}
	}

	identifiers = append(identifiers, map[string]any{
		"Type":      map[string]any{"Id": typeID},
		"CreatedBy": updatedBy,
		"CreatedAt": stamp,
		"Value":     doi,
	})
	raw["Identifiers"] = identifiers
	raw["UpdatedBy"] = updatedBy
	raw["UpdatedDate"] = stamp
	return nil
}
