// Package types defines the shared vocabulary of the gateway: chat turns and
// generation parameters, the normalized stream chunk union, model listings and
// the provider error type used across the Bedrock engine and the model catalog.
package types
