package archive

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// ============================================================
// Archive Reader
// ============================================================

// HomeEntry: обязательная XML-запись архива .sh3d
const HomeEntry = "Home.xml"

var (
	ErrMissingEntry = errors.New("archive: missing entry")
	ErrCorrupt      = errors.New("archive: corrupt or truncated")
)

// Archive даёт доступ к записям архива без распаковки всего содержимого.
// Индекс имён строится один раз при открытии; байты читаются по требованию.
type Archive struct {
	fsys  fs.FS
	index map[string]int64
	names []string
}

// Resource: содержимое записи-ресурса с определённым типом
type Resource struct {
	Name        string
	ContentType string
	Extension   string
	Data        []byte
}

// Open открывает архив из байтов и строит индекс записей
func Open(ctx context.Context, data []byte) (*Archive, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty input")
	}

	format, _, err := archives.Identify(ctx, "", bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "identify: %v", err)
	}
	if _, ok := format.(archives.Zip); !ok {
		return nil, errors.Wrapf(ErrCorrupt, "unexpected container format %s", format.Extension())
	}

	fsys, err := archives.FileSystem(ctx, "home.sh3d", bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "open: %v", err)
	}

	a := &Archive{fsys: fsys, index: make(map[string]int64)}
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		a.index[p] = size
		a.names = append(a.names, p)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(ErrCorrupt, "read index: %v", err)
	}
	sort.Strings(a.names)
	return a, nil
}

// HomeXML возвращает байты Home.xml
func (a *Archive) HomeXML() ([]byte, error) {
	return a.read(HomeEntry)
}

// Has сообщает, есть ли запись с таким именем (без чтения байтов)
func (a *Archive) Has(name string) bool {
	_, ok := a.index[Normalize(name)]
	return ok
}

// Names возвращает отсортированный список записей
func (a *Archive) Names() []string {
	return append([]string(nil), a.names...)
}

// Size возвращает размер записи из индекса
func (a *Archive) Size(name string) (int64, bool) {
	size, ok := a.index[Normalize(name)]
	return size, ok
}

// Entry открывает поток записи; вызывающий закрывает его
func (a *Archive) Entry(name string) (io.ReadCloser, error) {
	key := Normalize(name)
	if _, ok := a.index[key]; !ok {
		return nil, errors.Wrapf(ErrMissingEntry, "%s", name)
	}
	f, err := a.fsys.Open(key)
	if err != nil {
		return nil, classify(err, name)
	}
	return f, nil
}

// Resource читает запись и определяет её тип по сигнатуре
func (a *Archive) Resource(name string) (*Resource, error) {
	data, err := a.read(name)
	if err != nil {
		return nil, err
	}

	res := &Resource{Name: Normalize(name), Data: data, ContentType: "application/octet-stream"}
	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown {
		res.ContentType = kind.MIME.Value
		res.Extension = kind.Extension
		return res, nil
	}

	switch ext := strings.ToLower(path.Ext(res.Name)); ext {
	case ".obj":
		res.ContentType, res.Extension = "model/obj", "obj"
	case ".mtl":
		res.ContentType, res.Extension = "model/mtl", "mtl"
	case ".svg":
		res.ContentType, res.Extension = "image/svg+xml", "svg"
	case ".xml":
		res.ContentType, res.Extension = "application/xml", "xml"
	}
	return res, nil
}

func (a *Archive) read(name string) ([]byte, error) {
	rc, err := a.Entry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "read %s: %v", name, err)
	}
	return data, nil
}

// ============================================================
// Helpers
// ============================================================

// Normalize приводит путь ресурса из XML к имени записи архива
func Normalize(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return name
	}
	return path.Clean(name)
}

// IsExternal сообщает, что путь указывает за пределы архива (URL каталога)
func IsExternal(name string) bool {
	return strings.Contains(name, "://") || strings.HasPrefix(name, "jar:")
}

func classify(err error, name string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(ErrMissingEntry, "%s", name)
	}
	return errors.Wrapf(ErrCorrupt, "open %s: %v", name, err)
}
