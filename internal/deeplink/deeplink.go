// Package deeplink converts dashboard navigation targets to and from the
// query-string form stored on a notification's action URL.
package deeplink

import (
	"net/url"
)

// DefaultPath is the dashboard route every action URL points at.
const DefaultPath = "/dashboard"

// Query parameter names. Other components build and read URLs with these exact keys.
const (
	ParamTab        = "tab"
	ParamTaskID     = "taskId"
	ParamCustomerID = "customerId"
	ParamPartnerID  = "partnerId"
	ParamRenewalID  = "renewalId"
)

// Dashboard tabs notifications link to.
const (
	TabOverview  = "overview"
	TabTasks     = "tasks"
	TabRenewals  = "renewals"
	TabCustomers = "customers"
	TabPartners  = "partners"
)

// Target is a logical navigation target. An empty field means the parameter is absent.
type Target struct {
	Tab        string `json:"tab,omitempty" binding:"required,max=64"`
	TaskID     string `json:"taskId,omitempty" binding:"max=128"`
	CustomerID string `json:"customerId,omitempty" binding:"max=128"`
	PartnerID  string `json:"partnerId,omitempty" binding:"max=128"`
	RenewalID  string `json:"renewalId,omitempty" binding:"max=128"`
}

// IsZero reports whether no field is set.
func (t Target) IsZero() bool {
	return t == Target{}
}

// Navigable reports whether the target names a view to open.
func (t Target) Navigable() bool {
	return t.Tab != ""
}

// fields lists the parameter name and value pairs of t in a fixed order.
func (t Target) fields() [5][2]string {
	return [5][2]string{
		{ParamTab, t.Tab},
		{ParamTaskID, t.TaskID},
		{ParamCustomerID, t.CustomerID},
		{ParamPartnerID, t.PartnerID},
		{ParamRenewalID, t.RenewalID},
	}
}

// Encode builds the action URL for t under DefaultPath.
func Encode(t Target) string {
	return EncodePath(DefaultPath, t)
}

// EncodePath builds an action URL for t under path. Only non-empty fields are
// written; a target with no fields yields the bare path.
func EncodePath(path string, t Target) string {
	values := url.Values{}
	for _, f := range t.fields() {
		if f[1] != "" {
			values.Set(f[0], f[1])
		}
	}
	u := url.URL{Path: path, RawQuery: values.Encode()}
	return u.String()
}

// Decode parses an action URL back into a Target. Relative and absolute URLs
// are accepted. Parameters that are missing or empty stay empty; when a
// parameter repeats, the first value wins. A URL or query string that cannot
// be parsed yields the zero Target, which callers treat as non-navigable.
func Decode(actionURL string) Target {
	u, err := url.Parse(actionURL)
	if err != nil {
		return Target{}
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return Target{}
	}
	return Target{
		Tab:        values.Get(ParamTab),
		TaskID:     values.Get(ParamTaskID),
		CustomerID: values.Get(ParamCustomerID),
		PartnerID:  values.Get(ParamPartnerID),
		RenewalID:  values.Get(ParamRenewalID),
	}
}

// Params returns the non-empty fields of t keyed by parameter name, the shape
// the UI shell merges into its own URL.
func (t Target) Params() map[string]string {
	params := make(map[string]string, 5)
	for _, f := range t.fields() {
		if f[1] != "" {
			params[f[0]] = f[1]
		}
	}
	return params
}
