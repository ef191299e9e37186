// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package jackett

import (
	"time"
)

// SearchResponse is a page of indexer search results as returned to the UI.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Partial bool           `json:"partial,omitempty"`
}

// SearchResult represents a single search result from Jackett
type SearchResult struct {
	// Indexer name
	Indexer string `json:"indexer"`
	// Indexer identifier
	IndexerID int `json:"indexer_id"`
	// Title of the release
	Title string `json:"title"`
	// Download URL for the torrent
	DownloadURL string `json:"download_url"`
	// Info URL (details page)
	InfoURL string `json:"info_url,omitempty"`
	// Size in bytes
	Size int64 `json:"size"`
	// Seeders count
	Seeders int `json:"seeders"`
	// Leechers count
	Leechers int `json:"leechers"`
	// Category ID
	CategoryID int `json:"category_id"`
	// Category name
	CategoryName string `json:"category_name"`
	// Published date
	PublishDate time.Time `json:"publish_date"`
	// Download volume factor (0.0 = free, 1.0 = normal)
	DownloadVolumeFactor float64 `json:"download_volume_factor"`
	// Upload volume factor
	UploadVolumeFactor float64 `json:"upload_volume_factor"`
	// GUID (unique identifier)
	GUID string `json:"guid"`
	// InfoHashV1 if available
	InfoHashV1 string `json:"infohash_v1,omitempty"`
	// InfoHashV2 if available
	InfoHashV2 string `json:"infohash_v2,omitempty"`
	// IMDb ID if available
	IMDbID string `json:"imdb_id,omitempty"`
	// TVDb ID if available
	TVDbID string `json:"tvdb_id,omitempty"`
	// Source parsed from release name (e.g., "WEB-DL", "BluRay", "HDTV")
	Source string `json:"source,omitempty"`
	// Collection/streaming service parsed from release name (e.g., "AMZN", "NF", "HULU", "MAX")
	Collection string `json:"collection,omitempty"`
	// Release group parsed from release name
	Group string `json:"group,omitempty"`
	// Resolution parsed from release name (e.g., "1080p", "2160p")
	Resolution string `json:"resolution,omitempty"`
}

// CategoryInfo represents a Torznab category
type CategoryInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Torznab category constants
const (
	// Movies
	CategoryMovies   = 2000
	CategoryMoviesSD = 2030
	CategoryMoviesHD = 2040
	CategoryMovies4K = 2045
	CategoryMovies3D = 2050

	// TV
	CategoryTV            = 5000
	CategoryTVSD          = 5030
	CategoryTVHD          = 5040
	CategoryTV4K          = 5045
	CategoryTVSport       = 5060
	CategoryTVAnime       = 5070
	CategoryTVDocumentary = 5080

	// XXX
	CategoryXXX         = 6000
	CategoryXXXDVD      = 6010
	CategoryXXXWMV      = 6020
	CategoryXXXXviD     = 6030
	CategoryXXXx264     = 6040
	CategoryXXXPack     = 6050
	CategoryXXXImageSet = 6060
	CategoryXXXOther    = 6070

	// Audio
	CategoryAudio = 3000

	// PC
	CategoryPC = 4000

	// Books
	CategoryBooks       = 7000
	CategoryBooksEbook  = 7020
	CategoryBooksComics = 7030
)
