package download

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/jmagar/tunegrab/internal/helpers"
	"github.com/jmagar/tunegrab/internal/model"
	"github.com/jmagar/tunegrab/internal/ui"
)

// maxListedTracks caps the per-link track listing.
const maxListedTracks = 15

type uploadUnit struct {
	localPath string
	remoteDir string
}

// postProcess lists, bundles and uploads the files of a finished request.
func (e *Engine) postProcess(ctx context.Context, out *model.Outcome) {
	if len(out.Files) == 0 {
		return
	}
	root := out.Request.OutputDir
	kind := out.Request.Kind

	printTracks(out)
	dirs, byDir := groupByDir(out.Files)

	if e.cfg.WritePlaylistFile && writesPlaylist(kind) {
		for _, dir := range dirs {
			if dir == root {
				continue
			}
			path, err := WritePlaylist(dir, filepath.Base(dir), sortedAudio(dir))
			if err != nil {
				ui.PrintWarning(err.Error())
				continue
			}
			ui.PrintInfo("Playlist file written: " + path)
		}
	}

	var archives []string
	if e.cfg.ZipAlbums && (kind == model.KindAlbum || kind == model.KindArtist) {
		for _, dir := range dirs {
			if dir == root {
				continue
			}
			archive, err := ZipDir(dir)
			if err != nil {
				ui.PrintWarning(err.Error())
				continue
			}
			ui.PrintInfo("Album archived: " + archive)
			archives = append(archives, archive)
		}
	}

	e.upload(ctx, uploadUnits(root, dirs, byDir, archives))
}

func writesPlaylist(kind model.LinkKind) bool {
	switch kind {
	case model.KindPlaylist, model.KindYTPlaylist, model.KindAccount:
		return true
	}
	return false
}

func printTracks(out *model.Outcome) {
	ui.PrintSuccess(fmt.Sprintf("%d new file(s), %s", len(out.Files), humanize.Bytes(uint64(out.Bytes))))
	for i, f := range out.Files {
		if i == maxListedTracks {
			ui.PrintMusic(fmt.Sprintf("... and %d more", len(out.Files)-maxListedTracks))
			break
		}
		label := ReadTrackInfo(f).Label()
		if label == "" {
			label = filepath.Base(f)
		}
		ui.PrintMusic(label)
	}
}

func sortedAudio(dir string) []string {
	var files []string
	for f := range snapshotAudio(dir) {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// uploadUnits picks what to send to remote storage. Folders below root go
// up whole; files directly in root go up one by one.
func uploadUnits(root string, dirs []string, byDir map[string][]string, archives []string) []uploadUnit {
	var units []uploadUnit
	for _, dir := range dirs {
		if dir == root {
			for _, f := range byDir[dir] {
				units = append(units, uploadUnit{localPath: f})
			}
			continue
		}
		units = append(units, uploadUnit{localPath: dir, remoteDir: helpers.RelDir(root, filepath.Dir(dir))})
	}
	for _, a := range archives {
		units = append(units, uploadUnit{localPath: a, remoteDir: helpers.RelDir(root, filepath.Dir(a))})
	}
	return units
}

func (e *Engine) upload(ctx context.Context, units []uploadUnit) {
	if e.deps == nil || e.deps.Upload == nil || !e.cfg.RcloneEnabled {
		return
	}
	for _, u := range units {
		if err := e.deps.Upload(ctx, u.localPath, u.remoteDir); err != nil {
			ui.PrintError(fmt.Sprintf("Upload failed for %s: %v", u.localPath, err))
			e.journal.Event("upload_failed", u.localPath, err)
		}
	}
}
