package questionbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"holoprofile/internal/safeio"
)

var ErrNotFound = errors.New("questionbank: not found")

// Assessment is one entry of the registry document.
type Assessment struct {
	ID          string        `json:"id" yaml:"id"`
	Path        string        `json:"path,omitempty" yaml:"path,omitempty"`
	Title       LocalizedText `json:"title,omitempty" yaml:"title,omitempty"`
	Description LocalizedText `json:"description,omitempty" yaml:"description,omitempty"`
}

type Registry struct {
	Assessments []Assessment `json:"assessments" yaml:"assessments"`
}

var assessmentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var docExtensions = []string{".json", ".yaml", ".yml"}

// DirLoader reads question banks laid out as
//
//	<root>/registry.(json|yaml)
//	<root>/<assessment>/<locale>.(json|yaml)
//
// Decoded documents are cached per (assessment, locale).
type DirLoader struct {
	fs      *safeio.SafeFS
	cache   *lru.Cache[string, *Document]
	locales []Locale
}

func NewDirLoader(dir string, cacheSize int) (*DirLoader, error) {
	fsys, err := safeio.NewSafeFS(dir)
	if err != nil {
		return nil, fmt.Errorf("question bank dir: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, *Document](cacheSize)
	if err != nil {
		return nil, err
	}
	return &DirLoader{fs: fsys, cache: cache, locales: DefaultLocales}, nil
}

// Registry returns the registry document. Without one, the assessment
// subdirectories are listed by id.
func (l *DirLoader) Registry() (*Registry, error) {
	var reg Registry
	err := l.decodeFirst("registry", &reg)
	if err == nil {
		return &reg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	ids, err := l.assessmentDirs()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		reg.Assessments = append(reg.Assessments, Assessment{ID: id})
	}
	return &reg, nil
}

// Document returns the question document of an assessment for lang, falling
// back to zh when that locale has no file. The returned locale is the one
// actually served.
func (l *DirLoader) Document(assessmentID, lang string) (*Document, Locale, error) {
	if !assessmentIDPattern.MatchString(assessmentID) {
		return nil, "", fmt.Errorf("%w: assessment %q", ErrNotFound, assessmentID)
	}
	want := NormalizeLocale(lang)
	doc, err := l.load(assessmentID, want)
	if err == nil {
		return doc, want, nil
	}
	if !errors.Is(err, ErrNotFound) || want == LocaleZH {
		return nil, "", err
	}
	doc, err = l.load(assessmentID, LocaleZH)
	if err != nil {
		return nil, "", err
	}
	return doc, LocaleZH, nil
}

// Bank builds a resolver over every locale of one assessment, or over all
// assessments when assessmentID is empty. Missing locale files are skipped.
func (l *DirLoader) Bank(assessmentID string) (*Bank, error) {
	var ids []string
	if assessmentID != "" {
		if !assessmentIDPattern.MatchString(assessmentID) {
			return nil, fmt.Errorf("%w: assessment %q", ErrNotFound, assessmentID)
		}
		ids = []string{assessmentID}
	} else {
		var err error
		if ids, err = l.assessmentDirs(); err != nil {
			return nil, err
		}
	}

	docs := make(map[Locale][]*Document)
	for _, id := range ids {
		for _, loc := range l.locales {
			doc, err := l.load(id, loc)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			docs[loc] = append(docs[loc], doc)
		}
	}
	if assessmentID != "" && len(docs) == 0 {
		return nil, fmt.Errorf("%w: assessment %q", ErrNotFound, assessmentID)
	}
	return New(docs, l.locales...), nil
}

func (l *DirLoader) load(assessmentID string, loc Locale) (*Document, error) {
	key := assessmentID + "/" + string(loc)
	if doc, ok := l.cache.Get(key); ok {
		return doc, nil
	}
	var doc Document
	if err := l.decodeFirst(path.Join(assessmentID, string(loc)), &doc); err != nil {
		return nil, err
	}
	l.cache.Add(key, &doc)
	return &doc, nil
}

// decodeFirst decodes the first existing <base><ext> file into v.
func (l *DirLoader) decodeFirst(base string, v any) error {
	for _, ext := range docExtensions {
		name := base + ext
		if !l.fs.Exists(name) {
			continue
		}
		raw, err := l.fs.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := decode(ext, raw, v); err != nil {
			return fmt.Errorf("decode %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotFound, base)
}

func decode(ext string, raw []byte, v any) error {
	if ext == ".json" {
		return json.Unmarshal(raw, v)
	}
	return yaml.Unmarshal(raw, v)
}

func (l *DirLoader) assessmentDirs() ([]string, error) {
	entries, err := l.fs.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && assessmentIDPattern.MatchString(e.Name()) && !strings.HasPrefix(e.Name(), ".") {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
