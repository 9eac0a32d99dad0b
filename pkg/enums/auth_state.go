package enums

// AuthState is the lifecycle position of the identity gate.
type AuthState string

const (
	// AuthStateUnknown holds until the first session resolution arrives.
	AuthStateUnknown       AuthState = "unknown"
	AuthStateAuthenticated AuthState = "authenticated"
	AuthStateAnonymous     AuthState = "anonymous"
)

// String implements fmt.Stringer.
func (s AuthState) String() string {
	return string(s)
}

// Resolved reports whether the gate has left the unknown state.
func (s AuthState) Resolved() bool {
	return s == AuthStateAuthenticated || s == AuthStateAnonymous
}

// LoginFailure classifies why a sign-in attempt was rejected.
type LoginFailure string

const (
	LoginFailureBadCredentials LoginFailure = "bad_credentials"
	LoginFailureUnknownAccount LoginFailure = "unknown_account"
	LoginFailureMalformedEmail LoginFailure = "malformed_email"
	LoginFailureRateLimited    LoginFailure = "rate_limited"
	LoginFailureMisconfigured  LoginFailure = "misconfigured"
	LoginFailureUnknown        LoginFailure = "unknown"
)

// String implements fmt.Stringer.
func (f LoginFailure) String() string {
	return string(f)
}
