// Package testutil provides shared constants for tests across the module.
// These constants eliminate repeated string literals in test files and ensure consistency.
package testutil

// Test Error Messages
//
// These constants define common error messages used in test assertions.

const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the transport error text for a closed port.
	TestConnectionRefused = "dial tcp 127.0.0.1:5000: connect: connection refused"
)

// Test Host Configuration

const (
	// TestBaseURL is the default local backend address.
	TestBaseURL = "http://localhost:5000/api"
)

// Test Contact Data
//
// Valid values for contact-form submissions.

const (
	TestName    = "Ada Lovelace"
	TestEmail   = "ada@example.com"
	TestService = "Notes"
	TestMessage = "I would like lecture notes for my course."
)
