// Package backend defines AI translation backend adapters.
package backend

import "github.com/ZaguanLabs/glotta"

// Backend is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type Backend = glotta.Backend

// Request is an alias to the main package type.
type Request = glotta.BackendRequest

// Result is an alias to the main package type.
type Result = glotta.BackendResult

// DetectRequest is an alias to the main package type.
type DetectRequest = glotta.DetectRequest

// Detection is an alias to the main package type.
type Detection = glotta.Detection

// Info is an alias to the main package type.
type Info = glotta.BackendInfo
