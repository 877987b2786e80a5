// Package backdrop manages the read-only set of scene images vehicles are
// composited onto. A registry is populated once at startup and then only
// read, so lookups need no locking.
package backdrop

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/keroxio/carstage/internal/utils"
	"github.com/keroxio/carstage/pkg/imageio"
)

// DefaultFloorLine is the canvas height fraction where the studio floor
// meets the wall, used when a backdrop does not declare its own.
const DefaultFloorLine = 0.85

// Backdrop is a named, immutable scene image with fixed canvas dimensions.
type Backdrop struct {
	ID        string
	Name      string
	Category  string
	FloorLine float64

	img *image.NRGBA
}

// Image returns the backdrop pixels. Callers must not mutate the result;
// the compositor clones it before drawing.
func (b *Backdrop) Image() *image.NRGBA {
	return b.img
}

// Size returns the canvas dimensions.
func (b *Backdrop) Size() (int, int) {
	return b.img.Bounds().Dx(), b.img.Bounds().Dy()
}

// Info describes a registered backdrop without exposing its pixels.
type Info struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// NotFoundError reports a lookup for an unregistered backdrop id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("backdrop: %q not found", e.ID)
}

// Registry holds the available backdrops. Register everything during
// startup; after that the registry is treated as immutable and Get/List
// may be called from any number of goroutines.
type Registry struct {
	backdrops map[string]*Backdrop
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backdrops: make(map[string]*Backdrop)}
}

// Register adds a backdrop, converting its pixels to NRGBA once. A backdrop
// with a zero FloorLine gets DefaultFloorLine. Re-registering an id replaces
// the previous entry.
func (r *Registry) Register(id, name, category string, img image.Image, floorLine float64) *Backdrop {
	if floorLine <= 0 || floorLine > 1 {
		floorLine = DefaultFloorLine
	}
	b := &Backdrop{
		ID:        id,
		Name:      name,
		Category:  category,
		FloorLine: floorLine,
		img:       imaging.Clone(img),
	}
	r.backdrops[id] = b
	return b
}

// Get returns the backdrop registered under id.
func (r *Registry) Get(id string) (*Backdrop, error) {
	b, ok := r.backdrops[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return b, nil
}

// List returns info for every registered backdrop, sorted by id.
func (r *Registry) List() []Info {
	infos := make([]Info, 0, len(r.backdrops))
	for _, b := range r.backdrops {
		w, h := b.Size()
		infos = append(infos, Info{ID: b.ID, Name: b.Name, Category: b.Category, Width: w, Height: h})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// ByCategory returns info for backdrops in the given category, sorted by id.
func (r *Registry) ByCategory(category string) []Info {
	var infos []Info
	for _, info := range r.List() {
		if info.Category == category {
			infos = append(infos, info)
		}
	}
	return infos
}

// LoadDirectory registers every image file in dir, keyed by its base name
// without extension. Files live under the "custom" category.
func (r *Registry) LoadDirectory(dir string) (int, error) {
	files, err := utils.ListImageFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("backdrop: failed to scan %s: %w", dir, err)
	}

	count := 0
	for _, path := range files {
		img, err := imageio.Load(path)
		if err != nil {
			return count, fmt.Errorf("backdrop: failed to load %s: %w", path, err)
		}
		base := filepath.Base(path)
		id := strings.TrimSuffix(base, filepath.Ext(base))
		r.Register(id, id, "custom", img, DefaultFloorLine)
		count++
	}
	return count, nil
}
