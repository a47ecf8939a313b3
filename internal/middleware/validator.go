package middleware

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
)

// Input validation and sanitization utilities

// ValidateProductID checks the opaque product identifier format
func ValidateProductID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("product_id is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("product_id too long (max 128 chars)")
	}
	// Block control characters and obvious injection attempts
	for _, r := range id {
		if r < 32 {
			return fmt.Errorf("invalid characters in product_id")
		}
	}
	return nil
}

// ValidateCategory checks the category tag
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category is required")
	}
	pattern := `^[a-zA-Z0-9 _-]{1,64}$`
	matched, _ := regexp.MatchString(pattern, category)
	if !matched {
		return fmt.Errorf("invalid category format (alphanumeric, space, dash, underscore, max 64 chars)")
	}
	return nil
}

// ValidateImages ensures a non-empty sequence of decodable base64 blobs
func ValidateImages(images []domain.ImageInput) error {
	if len(images) == 0 {
		return fmt.Errorf("at least one image is required")
	}
	if len(images) > 10 {
		return fmt.Errorf("too many images (max 10)")
	}
	for i, img := range images {
		if strings.TrimSpace(img.B64) == "" {
			return fmt.Errorf("images[%d].b64 is empty", i)
		}
		if _, err := base64.StdEncoding.DecodeString(img.B64); err != nil {
			return fmt.Errorf("images[%d].b64 is not valid base64", i)
		}
	}
	return nil
}

// ValidateRunID checks the run identifier used in detail lookups
func ValidateRunID(runID string) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	pattern := `^[a-zA-Z0-9_-]{1,128}$`
	matched, _ := regexp.MatchString(pattern, runID)
	if !matched {
		return fmt.Errorf("invalid run id format")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 50 // default
	}
	if limit > 50 {
		return 50 // max limit
	}
	return limit
}

// ValidatePageSize validates page size for review listings
func ValidatePageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
