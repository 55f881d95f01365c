// Package shapes holds the built-in shape providers: basic-auth, TLS, SSH,
// and opaque/custom. Each is a self-contained implementation of
// shape.Provider; they share only the fragment construction helpers in this
// file, since every shape references its materialized Secret the same way.
package shapes

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/systmms/secretwire/pkg/shape"
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9.-]`)

// ResourceName derives the Kubernetes object name for a declared secret.
// Logical names like API_CREDENTIALS become api-credentials; the transform
// is deterministic so every fragment and the materialized resource agree.
func ResourceName(secretName string) string {
	name := strings.ToLower(secretName)
	name = invalidNameChars.ReplaceAllString(name, "-")
	return strings.Trim(name, "-.")
}

// newSecret builds the metadata-complete Secret skeleton every shape fills in.
func newSecret(secretName string, secretType corev1.SecretType) *corev1.Secret {
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: ResourceName(secretName),
			Labels: map[string]string{
				"app.kubernetes.io/managed-by": "secretwire",
			},
		},
		Type: secretType,
		Data: map[string][]byte{},
	}
}

// missingFields returns schema fields absent from values, in schema order.
func missingFields(schema []shape.FieldSpec, values map[string][]byte) []string {
	var missing []string
	for _, f := range schema {
		if _, ok := values[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// buildFragment constructs the injection fragment for one field. dataKey is
// the key the field's value lives under in the materialized Secret's Data
// map. The fragment carries a reference to that key, never the value.
func buildFragment(providerID, secretName string, field shape.FieldSpec, dataKey string, kind shape.Kind, opts shape.Options) (shape.Fragment, error) {
	if !field.Allows(kind) {
		return shape.Fragment{}, shape.KindNotSupportedError{Provider: providerID, Field: field.Name, Kind: kind}
	}

	resource := ResourceName(secretName)
	frag := shape.Fragment{
		SecretName: secretName,
		FieldName:  field.Name,
		Kind:       kind,
	}

	switch kind {
	case shape.KindEnv:
		if opts.EnvName == "" {
			return shape.Fragment{}, fmt.Errorf("env injection of '%s/%s' requires an environment variable name", secretName, field.Name)
		}
		frag.Env = &corev1.EnvVar{
			Name: opts.EnvName,
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: resource},
					Key:                  dataKey,
				},
			},
		}

	case shape.KindVolume:
		if opts.MountPath == "" {
			return shape.Fragment{}, fmt.Errorf("volume injection of '%s/%s' requires a mount path", secretName, field.Name)
		}
		fileName := opts.FileName
		if fileName == "" {
			fileName = dataKey
		}
		volumeName := resource + "-" + strings.ReplaceAll(dataKey, ".", "-")
		frag.Volume = &corev1.Volume{
			Name: volumeName,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{
					SecretName: resource,
					Items: []corev1.KeyToPath{
						{Key: dataKey, Path: fileName},
					},
				},
			},
		}
		// Single-file mount: the volume projects one key and the mount
		// places it at <mountPath>/<fileName> without shadowing whatever
		// else lives in that directory.
		frag.Mount = &corev1.VolumeMount{
			Name:      volumeName,
			MountPath: path.Join(opts.MountPath, fileName),
			SubPath:   fileName,
			ReadOnly:  true,
		}

	case shape.KindAnnotation:
		if opts.AnnotationKey == "" {
			return shape.Fragment{}, fmt.Errorf("annotation injection of '%s/%s' requires an annotation key", secretName, field.Name)
		}
		frag.AnnotationKey = opts.AnnotationKey
		frag.AnnotationValue = fmt.Sprintf("secretref://%s/%s", resource, dataKey)

	default:
		return shape.Fragment{}, shape.KindNotSupportedError{Provider: providerID, Field: field.Name, Kind: kind}
	}

	return frag, nil
}
