package parish

import (
	"context"

	"github.com/krisalay/datacache/types"
)

// ContentFetcher loads the home page content from src.
func ContentFetcher(src *Source) types.FetchFunc[Content] {
	return src.Content
}

// MassTimesFetcher loads the weekly schedule from src.
func MassTimesFetcher(src *Source) types.FetchFunc[[]MassTime] {
	return src.MassTimes
}

// ChurchFetcher loads one church from src.
func ChurchFetcher(src *Source, id string) types.FetchFunc[Church] {
	return func(ctx context.Context) (Church, error) {
		return src.Church(ctx, id)
	}
}
