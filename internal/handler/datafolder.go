package handler

import (
	"net/http"

	"github.com/S1riyS/tree-server/pkg/respond"
)

// DataFolderMount describes a request that landed on (or inside) a data
// folder.
type DataFolderMount struct {
	// Prefix is the URL path of the data folder itself.
	Prefix string `json:"prefix"`
	// Path is the data folder on disk. It is never sent to clients.
	Path string `json:"-"`
	// Rest holds the request segments past the data folder. They are never
	// resolved against the filesystem here.
	Rest []string `json:"rest"`
}

// DataFolderServer serves data folders. Data folders are opaque units, so
// the request is handed over whole.
type DataFolderServer interface {
	ServeDataFolder(w http.ResponseWriter, r *http.Request, mount *DataFolderMount)
}

// DataFolderServerFunc adapts a function to DataFolderServer.
type DataFolderServerFunc func(w http.ResponseWriter, r *http.Request, mount *DataFolderMount)

func (f DataFolderServerFunc) ServeDataFolder(w http.ResponseWriter, r *http.Request, mount *DataFolderMount) {
	f(w, r, mount)
}

type dataFolderBody struct {
	Type string `json:"type"`
	*DataFolderMount
}

// describeDataFolder is used when no data folder engine is configured: it
// reports where the data folder is mounted.
func describeDataFolder(w http.ResponseWriter, _ *http.Request, mount *DataFolderMount) {
	_ = respond.JSON(w, http.StatusOK, dataFolderBody{Type: "datafolder", DataFolderMount: mount})
}
