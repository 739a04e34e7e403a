package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint derives the cache key for a classification request from the
// exact inputs that determine its output: company identity, the input
// document id set, and the ruleset version. A ruleset change therefore
// invalidates stale entries automatically. The document id set is sorted
// first, so the fingerprint is independent of submission order.
func Fingerprint(companyName string, documentIDs []string, rulesetVersion string) string {
	ids := make([]string, len(documentIDs))
	copy(ids, documentIDs)
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(NormalizeCompany(companyName)))
	h.Write([]byte{0})
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	h.Write([]byte(rulesetVersion))

	return "assess:" + hex.EncodeToString(h.Sum(nil))
}

// CompanyKey is the stable alias key for cache-only reads that arrive with
// just a company name. Profiles are stored under both their fingerprint and
// this alias.
func CompanyKey(companyName string) string {
	return "company:" + NormalizeCompany(companyName)
}

// NormalizeCompany canonicalizes a company name for keying purposes.
func NormalizeCompany(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
