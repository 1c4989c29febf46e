package vmt

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// TextureParams is the set of VMT parameters whose value names a texture
// (or, for a handful of water parameters, another material). Collected
// from the stock Source shaders plus the common community ones.
var TextureParams = []string{
	"$basetexture",
	"$basetexture2",
	"$basetexture3",
	"$basetexture4",
	"$bumpmap",
	"$bumpmap2",
	"$ssbump",
	"$normalmap",
	"$normalmap2",
	"$detail",
	"$detail2",
	"$lightwarptexture",
	"$envmap",
	"$envmapmask",
	"$envmapmask2",
	"$selfillummask",
	"$phongexponenttexture",
	"$phongwarptexture",
	"$phongexponent2texture",
	"$tintmasktexture",
	"$ambientocclusiontexture",
	"$blendmodulatetexture",
	"$tooltexture",
	"$fresnelrangestexture",
	"$emissiveblendtexture",
	"$emissiveblendbasetexture",
	"$emissiveblendflowtexture",
	"$fleshinteriortexture",
	"$fleshinteriornoisetexture",
	"$fleshbordertexture1d",
	"$fleshcubetexture",
	"$fleshnormaltexture",
	"$fleshsubsurfacetexture",
	"$displaceallowance",
	"$parallaxmap",
	"$masks1",
	"$masks2",
	"$maskstexture",
	"$iris",
	"$corneatexture",
	"$fresneltexture",
	"$warptexture",
	"$flowmap",
	"$blendmask",
	"$painttexture",
	"$detailblendmask",
	"$reflecttexture",
	"$refracttexture",
	"$refracttinttexture",
	"$bottommaterial",
	"$underwateroverlay",
	"$backlighttexture",
	"$displacementmap",
	"$ambientoccltexture",
	"$specmasktexture",
	"$fresnelwarptexture",
	"$opacitytexture",
	"$blendmap",
	"$blendmap2",
	"$texture1",
	"$texture2",
	"$texture3",
	"%tooltexture",
	"$flow_noise_texture",
	"$paintsplatnormalmap",
	"$paintsplatbubblelayout",
	"$paintsplatbubble",
	"$paintenvmap",
	"$basenormalmap2",
	"$basenormalmap3",
	"$basenormalmap4",
	"$dudvmap",
	"$spitternoisetexture",
	"$scenedepth",
	"$ramptexture",
	"$gradienttexture",
	"$cloudalphatexture",
	"$corecolortexture",
	"$detail1",
	"$flowbounds",
	"$masks",
	"$selfillummap",
	"$decaltexture",
	"$lightmap",
	"$compress",
	"$stretch",
	"$colorbar",
	"$stripetexture",
}

// paramRegex matches `"$param" "value"` pairs for any known texture
// parameter. The parameter quotes are optional; VMTs in the wild use
// both styles.
var paramRegex = func() *regexp.Regexp {
	quoted := make([]string, len(TextureParams))
	for i, p := range TextureParams {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)"?(` + strings.Join(quoted, "|") + `)"?\s+"([^"]+)"`)
}()

// Reference is one texture reference found in a material file.
type Reference struct {
	// Param is the matched parameter name, lowercased.
	Param string
	// Path is the normalized texture path: forward slashes, trimmed,
	// lowercased, no file extension (the engine form).
	Path string
}

// NormalizePath converts a texture path to the canonical engine form:
// forward slashes, trimmed and lowercased.
func NormalizePath(p string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(p, "\\", "/")))
}

// WithVTFSuffix appends ".vtf" unless the path already carries it.
func WithVTFSuffix(p string) string {
	if strings.HasSuffix(p, ".vtf") {
		return p
	}
	return p + ".vtf"
}

// References extracts every texture reference from material file content.
func References(content string) []Reference {
	matches := paramRegex.FindAllStringSubmatch(content, -1)
	refs := make([]Reference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, Reference{
			Param: strings.ToLower(m[1]),
			Path:  NormalizePath(m[2]),
		})
	}
	return refs
}

// ScanFile reads a material file and extracts its texture references.
// VMTs are latin-1 in practice; reading the raw bytes as a string keeps
// every reference intact without an encoding pass.
func ScanFile(path string) ([]Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return References(string(data)), nil
}

// RewriteReference redirects the first occurrence of a quoted texture
// path to a new one, leaving a trailing comment naming the original so
// the change stays auditable in the shipped material:
//
//	"$basetexture" "foptimizer_shared_duplicates/<hash>" // Original: old/path
//
// The match is case insensitive against the normalized content (the
// caller is expected to pass content that has had backslashes replaced).
// Returns the rewritten content and whether a replacement happened.
func RewriteReference(content, from, to string) (string, bool) {
	re := regexp.MustCompile(`(?i)"` + regexp.QuoteMeta(from) + `"`)
	loc := re.FindStringIndex(content)
	if loc == nil {
		return content, false
	}
	replacement := fmt.Sprintf("%q // Original: %s", to, from)
	return content[:loc[0]] + replacement + content[loc[1]:], true
}
