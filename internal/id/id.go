// Package id generates prefixed identifiers for request correlation and
// alert tagging.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const (
	PrefixRequest = "req"
	PrefixAlert   = "alert"
)

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewRequest() string { return New(PrefixRequest) }
func NewAlert() string   { return New(PrefixAlert) }
