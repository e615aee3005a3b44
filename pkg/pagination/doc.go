// Package pagination walks the BoxNow parcel listing to completion.
//
// The provider returns at most 50 parcels per page together with the total
// count and an opaque continuation cursor. Every page's cursor comes from
// the previous response, so pages are fetched strictly in sequence.
//
// Example usage:
//
//	lister := pagination.NewLister(boxnowClient, pagination.DefaultConfig())
//	ids, err := lister.ListPendingParcels(ctx, token)
//
// The lister:
//   - Fetches the first page to learn the total count
//   - Derives the page count as ceil(count / 50)
//   - Follows pagination.next until that many pages have been read
//   - Stops early, without error, when a cursor is missing
//   - Returns nothing on any failed page (complete list or error)
package pagination
