package types

const redactedPlaceholder = "***REDACTED***"

var redactedJSON = []byte(`"***REDACTED***"`)

// SecretString is a string that refuses to print itself. String and
// MarshalJSON return a placeholder so credentials such as DATABASE_URL or
// SENDGRID_API_KEY never end up in logs or config dumps.
//
// Use Unmask() where the raw value is required (HTTP auth headers,
// connection strings).
type SecretString string

// String returns a redacted placeholder instead of the raw value.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// MarshalJSON returns the redacted placeholder as a JSON string.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return redactedJSON, nil
}

// Unmask returns the raw plaintext value of the secret.
func (s SecretString) Unmask() string {
	return string(s)
}

// IsSet reports whether the secret carries a non-empty value.
func (s SecretString) IsSet() bool {
	return s != ""
}
