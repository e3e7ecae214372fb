package assets

import "errors"

var (
	ErrAssetExists        = errors.New("assets: asset already exists")
	ErrAssetNotFound      = errors.New("assets: asset not found")
	ErrCollectionExists   = errors.New("assets: collection already exists")
	ErrCollectionNotFound = errors.New("assets: collection not found")
	ErrUnauthorized       = errors.New("assets: unauthorized")
	ErrBadInstruction     = errors.New("assets: malformed instruction")
	ErrNameTooLong        = errors.New("assets: name too long")
	ErrURITooLong         = errors.New("assets: uri too long")
)
