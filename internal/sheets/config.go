// Package sheets appends rows to a Google spreadsheet located by name.
package sheets

import (
	"encoding/json"
	"fmt"
)

// DefaultSpreadsheetName is the spreadsheet feedback is written to.
const DefaultSpreadsheetName = "EmoSic_Feedback"

// ServiceAccount holds Google service account key fields. The JSON tags
// match the key file Google issues.
type ServiceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri,omitempty"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url,omitempty"`
	ClientX509CertURL       string `json:"client_x509_cert_url,omitempty"`
	UniverseDomain          string `json:"universe_domain,omitempty"`
}

// IsZero reports whether no credential field is set.
func (sa ServiceAccount) IsZero() bool {
	return sa == ServiceAccount{}
}

// JSON encodes the account in Google's key file format.
func (sa ServiceAccount) JSON() ([]byte, error) {
	data, err := json.Marshal(sa)
	if err != nil {
		return nil, fmt.Errorf("encoding service account: %w", err)
	}
	return data, nil
}

// Config holds spreadsheet destination and credentials.
type Config struct {
	SpreadsheetName string // looked up through Drive when SpreadsheetID is empty
	SpreadsheetID   string
	Credentials     ServiceAccount
}
