// Package results stores the marker lists of a batch run.
//
// The archive is a NumPy .npz file so it can be inspected with numpy. For
// every image N (1-based) it holds four arrays:
//
//	imageN_ids        int64,   shape (n,)
//	imageN_centroids  float64, shape (n, 2)
//	imageN_rvecs      float64, shape (n, 3)
//	imageN_tvecs      float64, shape (n, 3)
//
// where n is the number of markers detected in that image. Images without
// markers are stored with n = 0 so the image count survives a round trip.
//
// The same data is also available as JSON for the CLI and the MCP server.
package results
