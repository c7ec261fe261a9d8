package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// LinkUniqueKey returns the portion of a product link before the first "&".
// Listing URLs carry tracking parameters after the first one; two links that
// differ only in those parameters share the same key. Links without "&" are
// returned unchanged.
func LinkUniqueKey(link string) string {
	if idx := strings.Index(link, "&"); idx >= 0 {
		return link[:idx]
	}
	return link
}

// LinkHash returns the hex MD5 of the link's unique key. It is the dedup key
// for persisted products; uniqueness at store scale is all that is required.
func LinkHash(link string) string {
	sum := md5.Sum([]byte(LinkUniqueKey(link)))
	return hex.EncodeToString(sum[:])
}
