// Package emit serializes a resolution result to disk: one YAML manifest
// per materialized secret and one patch document per deployment unit.
// Patches reference secrets through the resource name and data key; raw
// values only ever appear inside the secret manifests themselves.
package emit

import (
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/systmms/secretwire/internal/engine"
	"github.com/systmms/secretwire/internal/shapes"
	"github.com/systmms/secretwire/pkg/shape"
)

// UnitPatch is the per-unit artifact: everything a deployment unit needs
// merged into its workload to receive its requested injections.
type UnitPatch struct {
	Unit         string               `json:"unit"`
	Annotations  map[string]string    `json:"annotations,omitempty"`
	Env          []corev1.EnvVar      `json:"env,omitempty"`
	Volumes      []corev1.Volume      `json:"volumes,omitempty"`
	VolumeMounts []corev1.VolumeMount `json:"volumeMounts,omitempty"`
}

// BuildUnitPatch aggregates one unit's planned fragments. Fragment order
// is preserved; volumes are deduplicated by name since two mounts may
// share one backing volume.
func BuildUnitPatch(unit string, fragments []engine.PlannedFragment) UnitPatch {
	patch := UnitPatch{Unit: unit}
	seenVolumes := make(map[string]bool)

	for _, planned := range fragments {
		frag := planned.Fragment
		switch frag.Kind {
		case shape.KindEnv:
			if frag.Env != nil {
				patch.Env = append(patch.Env, *frag.Env)
			}
		case shape.KindVolume:
			if frag.Volume != nil && !seenVolumes[frag.Volume.Name] {
				seenVolumes[frag.Volume.Name] = true
				patch.Volumes = append(patch.Volumes, *frag.Volume)
			}
			if frag.Mount != nil {
				patch.VolumeMounts = append(patch.VolumeMounts, *frag.Mount)
			}
		case shape.KindAnnotation:
			if patch.Annotations == nil {
				patch.Annotations = make(map[string]string)
			}
			patch.Annotations[frag.AnnotationKey] = frag.AnnotationValue
		}
	}
	return patch
}

// Write serializes the result under dir: secrets/<resource>.yaml per
// materialized secret and units/<unit>.patch.yaml per unit with planned
// fragments. Output order follows the result's deterministic ordering.
func Write(result *engine.Result, dir string) error {
	secretsDir := filepath.Join(dir, "secrets")
	unitsDir := filepath.Join(dir, "units")

	if err := os.MkdirAll(secretsDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.MkdirAll(unitsDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, secret := range result.Resources {
		data, err := sigsyaml.Marshal(secret)
		if err != nil {
			return fmt.Errorf("failed to marshal secret '%s': %w", secret.Name, err)
		}
		path := filepath.Join(secretsDir, secret.Name+".yaml")
		// Manifests hold the raw values, so keep them owner-only.
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	for _, unit := range result.Units {
		patch := BuildUnitPatch(unit, result.Plans[unit])
		data, err := sigsyaml.Marshal(patch)
		if err != nil {
			return fmt.Errorf("failed to marshal patch for unit '%s': %w", unit, err)
		}
		path := filepath.Join(unitsDir, shapes.ResourceName(unit)+".patch.yaml")
		if err := os.WriteFile(path, data, 0o640); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
