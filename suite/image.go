package suite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"javelin/bytecode"
	"javelin/cases"
)

// ImageVersion is the packed image format version; readers reject
// anything else.
const ImageVersion uint16 = 1

var imageMagic = []byte("JVLN")

var (
	// ErrNotImage means the file is not a javelin suite image at all.
	ErrNotImage = errors.New("not a javelin suite image")
	// ErrImageVersion means the image was written by an incompatible
	// format version.
	ErrImageVersion = errors.New("unsupported suite image version")
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("suite: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type imageClass struct {
	Name string `cbor:"name"`
	Doc  []byte `cbor:"doc"` // class JSON document
}

type imageFile struct {
	Magic    []byte       `cbor:"magic"`
	Version  uint16       `cbor:"version"`
	Name     string       `cbor:"name"`
	MaxSteps int          `cbor:"max-steps"`
	Classes  []imageClass `cbor:"classes"`
	Cases    []string     `cbor:"cases"`
}

// WriteImage packs the whole suite into one CBOR file, written atomically
// via a temp file in the same directory.
func WriteImage(path string, s *Suite) error {
	img := imageFile{
		Magic:    imageMagic,
		Version:  ImageVersion,
		Name:     s.Manifest.Suite.Name,
		MaxSteps: s.Manifest.Run.MaxSteps,
	}

	perClass := make(map[string][]*bytecode.Method)
	for _, m := range s.Program.Methods() {
		perClass[m.ID.Class] = append(perClass[m.ID.Class], m)
	}
	for _, class := range s.Program.Classes() {
		doc, err := bytecode.MarshalClass(class, perClass[class])
		if err != nil {
			return fmt.Errorf("pack %s: %w", class, err)
		}
		img.Classes = append(img.Classes, imageClass{Name: class, Doc: doc})
	}
	for _, c := range s.Cases.All() {
		img.Cases = append(img.Cases, c.FormatLine())
	}

	data, err := cborEncMode.Marshal(&img)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".javelin-image-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	log.Infof("packed %d classes, %d cases into %s", len(img.Classes), len(img.Cases), path)
	return nil
}

// ReadImage loads a packed suite image.
func ReadImage(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img imageFile
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	if !bytes.Equal(img.Magic, imageMagic) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%s: version %d: %w", path, img.Version, ErrImageVersion)
	}

	var methods []*bytecode.Method
	for _, c := range img.Classes {
		ms, err := bytecode.DecodeClass(c.Doc)
		if err != nil {
			return nil, fmt.Errorf("%s: class %s: %w", path, c.Name, err)
		}
		methods = append(methods, ms...)
	}
	prog, err := bytecode.NewProgram(methods...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	reg := NewRegistry(nil)
	for _, line := range img.Cases {
		c, err := cases.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		reg.Add(c)
	}

	m := DefaultManifest(filepath.Dir(path))
	m.Suite.Name = img.Name
	if img.MaxSteps > 0 {
		m.Run.MaxSteps = img.MaxSteps
	}
	log.Infof("loaded image %s: %d methods, %d cases", path, len(methods), reg.Len())
	return &Suite{Manifest: m, Program: prog, Cases: reg}, nil
}
