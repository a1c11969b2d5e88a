package jsonfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dDict/lib/db"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultFileMode fs.FileMode = 0o644
	tempPattern                 = ".ddict-*.tmp"
)

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// jsonFileImpl stores the dictionary as a single JSON object on disk
type jsonFileImpl struct {
	path     string
	indent   bool
	fileMode fs.FileMode

	mu       sync.Mutex // serializes Save calls
	closed   atomic.Bool
	saves    atomic.Uint64
	lastSize atomic.Int64
	lastSave atomic.Int64 // unix nano
}

// DBOptions configures the jsonFileImpl behavior during initialization
type DBOptions struct {
	Path     string      // Path of the dictionary file
	Indent   bool        // Pretty print the JSON document
	FileMode fs.FileMode // Permissions of the written file (0 = 0644)
}

// DefaultOptions returns the default options for the given path
func DefaultOptions(path string) *DBOptions {
	return &DBOptions{
		Path:     path,
		Indent:   true,
		FileMode: defaultFileMode,
	}
}

// Metadata is reported through db.DatabaseInfo
type Metadata struct {
	Saves    uint64    `json:"saves"`
	LastSave time.Time `json:"last_save,omitempty"`
	Indent   bool      `json:"indent"`
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// NewJSONFileDB creates a new file backed SnapshotDB. The file itself is not
// touched until Load or Save is called.
func NewJSONFileDB(opts *DBOptions) db.SnapshotDB {
	if opts == nil {
		opts = DefaultOptions("dictionary.json")
	}
	mode := opts.FileMode
	if mode == 0 {
		mode = defaultFileMode
	}
	return &jsonFileImpl{
		path:     opts.Path,
		indent:   opts.Indent,
		fileMode: mode,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.SnapshotDB)
// --------------------------------------------------------------------------

func (j *jsonFileImpl) Load() (db.Dictionary, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		Logger.Infof("dictionary file %s does not exist, starting empty", j.path)
		return db.Dictionary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", j.path, err)
	}
	j.lastSize.Store(int64(len(data)))

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return db.Dictionary{}, nil
	}

	dict := db.Dictionary{}
	if err := json.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", db.ErrCorruptSnapshot, j.path, err)
	}
	if err := checkDictionary(dict); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", db.ErrCorruptSnapshot, j.path, err)
	}

	Logger.Infof("loaded %d words from %s", len(dict), j.path)
	return dict, nil
}

func (j *jsonFileImpl) Save(dict db.Dictionary) (err error) {
	if j.closed.Load() {
		return errors.New("jsonfile: database is closed")
	}
	if dict == nil {
		dict = db.Dictionary{}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	// remove the temp file on any failure, the target stays untouched
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	if err = enc.Encode(dict); err != nil {
		return fmt.Errorf("failed to encode dictionary: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, j.fileMode); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, j.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", j.path, err)
	}

	j.saves.Add(1)
	j.lastSize.Store(info.Size())
	j.lastSave.Store(time.Now().UnixNano())
	return nil
}

func (j *jsonFileImpl) GetInfo() db.DatabaseInfo {
	meta := Metadata{
		Saves:  j.saves.Load(),
		Indent: j.indent,
	}
	if ts := j.lastSave.Load(); ts != 0 {
		meta.LastSave = time.Unix(0, ts)
	}
	return db.DatabaseInfo{
		SizeBytes: j.lastSize.Load(),
		DbType:    db.ImplJSONFile,
		Path:      j.path,
		Metadata:  meta,
	}
}

func (j *jsonFileImpl) Close() error {
	j.closed.Store(true)
	return nil
}

// checkDictionary verifies that every word has a non-empty list of
// distinct, non-blank meanings.
func checkDictionary(dict db.Dictionary) error {
	for word, meanings := range dict {
		if strings.TrimSpace(word) == "" {
			return errors.New("blank word")
		}
		if len(meanings) == 0 {
			return fmt.Errorf("word %q has no meanings", word)
		}
		seen := make(map[string]struct{}, len(meanings))
		for _, m := range meanings {
			if strings.TrimSpace(m) == "" {
				return fmt.Errorf("word %q has a blank meaning", word)
			}
			if _, dup := seen[m]; dup {
				return fmt.Errorf("word %q has duplicate meaning %q", word, m)
			}
			seen[m] = struct{}{}
		}
	}
	return nil
}
