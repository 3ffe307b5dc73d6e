// Package kustomization edits the images list of a kustomization file. It is
// the CI image-bump step that pins a freshly pushed tag or digest into the
// GitOps overlay; it does not build overlays.
//
// Only the images node is replaced. Comments and the order of the other keys
// are kept, so the resulting commit diff touches just the pinned images.
package kustomization

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	ktypes "sigs.k8s.io/kustomize/api/types"
	kyaml "sigs.k8s.io/kustomize/kyaml/yaml"
	"sigs.k8s.io/yaml"

	"github.com/aescanero/example-app/internal/errors"
)

// ParseImageArg parses an image override of the form
// <name>[=<newName>][:<tag>|@<digest>]
func ParseImageArg(arg string) (ktypes.Image, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ktypes.Image{}, fmt.Errorf("%w: empty argument", errors.ErrInvalidImage)
	}

	name, ref, renamed := strings.Cut(arg, "=")
	if !renamed {
		ref = arg
	}

	base, tag, digest := splitReference(ref)
	if !renamed {
		name = base
	}

	img := ktypes.Image{
		Name:   name,
		NewTag: tag,
		Digest: digest,
	}
	if renamed {
		img.NewName = base
	}

	if img.Name == "" || (renamed && img.NewName == "") {
		return ktypes.Image{}, fmt.Errorf("%w: %q", errors.ErrInvalidImage, arg)
	}
	if img.NewName == "" && img.NewTag == "" && img.Digest == "" {
		return ktypes.Image{}, fmt.Errorf("%w: %q sets no new name, tag or digest", errors.ErrInvalidImage, arg)
	}

	return img, nil
}

// splitReference splits an image reference into name, tag and digest.
// A colon before the last slash belongs to a registry port, not a tag.
func splitReference(ref string) (name, tag, digest string) {
	if i := strings.Index(ref, "@"); i >= 0 {
		return ref[:i], "", ref[i+1:]
	}

	lastSlash := strings.LastIndex(ref, "/")
	if i := strings.LastIndex(ref, ":"); i > lastSlash {
		return ref[:i], ref[i+1:], ""
	}
	return ref, "", ""
}

// SetImages merges overrides into k.Images by name and sorts the list by name.
// Setting a tag clears a previous digest and the other way round.
func SetImages(k *ktypes.Kustomization, overrides ...ktypes.Image) {
	for _, o := range overrides {
		idx := -1
		for i := range k.Images {
			if k.Images[i].Name == o.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			k.Images = append(k.Images, ktypes.Image{Name: o.Name})
			idx = len(k.Images) - 1
		}

		img := &k.Images[idx]
		if o.NewName != "" {
			img.NewName = o.NewName
		}
		if o.NewTag != "" {
			img.NewTag = o.NewTag
			img.Digest = ""
		}
		if o.Digest != "" {
			img.Digest = o.Digest
			img.NewTag = ""
		}
	}

	sort.SliceStable(k.Images, func(i, j int) bool {
		return k.Images[i].Name < k.Images[j].Name
	})
}

// SetImagesInFile applies overrides to the kustomization at path. The file is
// only rewritten when its images change; changed reports whether it was.
func SetImagesInFile(path string, overrides ...ktypes.Image) (changed bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errors.ErrKustomizationFile, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("%w: %w", errors.ErrKustomizationFile, err)
	}

	var k ktypes.Kustomization
	if err := yaml.Unmarshal(data, &k); err != nil {
		return false, fmt.Errorf("%w: parse %s: %w", errors.ErrKustomizationFile, path, err)
	}

	before := append([]ktypes.Image(nil), k.Images...)
	SetImages(&k, overrides...)
	if reflect.DeepEqual(before, k.Images) {
		return false, nil
	}

	out, err := replaceImages(string(data), k.Images)
	if err != nil {
		return false, fmt.Errorf("%w: encode %s: %w", errors.ErrKustomizationFile, path, err)
	}

	if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("%w: %w", errors.ErrKustomizationFile, err)
	}
	return true, nil
}

// replaceImages swaps the images field of a kustomization document in place
func replaceImages(document string, images []ktypes.Image) (string, error) {
	root, err := kyaml.Parse(document)
	if err != nil {
		return "", err
	}

	encoded, err := yaml.Marshal(images)
	if err != nil {
		return "", err
	}
	imagesNode, err := kyaml.Parse(string(encoded))
	if err != nil {
		return "", err
	}

	if err := root.PipeE(kyaml.SetField("images", imagesNode)); err != nil {
		return "", err
	}

	return root.String()
}
