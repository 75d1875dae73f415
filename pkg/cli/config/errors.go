package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound       = goerr.New("configuration file not found")
	ErrInvalidConfig        = goerr.New("invalid configuration")
	ErrDuplicateWorkspaceID = goerr.New("duplicate workspace ID")
	ErrMissingWorkspaceID   = goerr.New("workspace ID is required")
	ErrMissingWorkspaceName = goerr.New("workspace name is required")
)
