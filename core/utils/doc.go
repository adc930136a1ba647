// Package utils provides common utility functions for the qrbooks application.
// It includes pagination helpers and other shared logic that doesn't fit into
// domain-specific packages.
package utils
