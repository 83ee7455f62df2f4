/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package version holds the build metadata printed by the --version flag:
// package name, description, release, build hash, author, and build date.
package version

import (
	"fmt"
	"strings"
	"time"
)

// License identifies the license a built binary is distributed under.
type License uint8

const (
	LicenseMIT License = iota
	LicenseApacheV2
	LicenseGNUGPLv3
)

func (l License) String() string {
	switch l {
	case LicenseApacheV2:
		return "Apache License 2.0"
	case LicenseGNUGPLv3:
		return "GNU GENERAL PUBLIC LICENSE v3"
	default:
		return "MIT License"
	}
}

// Version exposes every build-time fact baked into the binary via -ldflags.
type Version interface {
	GetPackage() string
	GetDescription() string
	GetRelease() string
	GetBuild() string
	GetAuthor() string
	GetPrefix() string
	GetDate() string
	GetTime() time.Time
	GetLicenseName() string
	GetHeader() string
	GetInfo() string
}

type version struct {
	license     License
	pkg         string
	description string
	build       string
	release     string
	author      string
	prefix      string
	date        time.Time
}

// NewVersion builds a Version record. buildDate is parsed as RFC3339; an
// unparsable value falls back to the current time rather than failing,
// since a missing -ldflags value at build time shouldn't crash the binary.
func NewVersion(license License, pkg, description, buildDate, build, release, author, prefix string) Version {
	if pkg == "" || pkg == "noname" {
		pkg = "reactorhttp"
	}

	t, err := time.Parse(time.RFC3339, buildDate)
	if err != nil {
		t = time.Now()
	}

	return &version{
		license:     license,
		pkg:         pkg,
		description: description,
		build:       build,
		release:     release,
		author:      author,
		prefix:      prefix,
		date:        t,
	}
}

func (v *version) GetPackage() string     { return v.pkg }
func (v *version) GetDescription() string { return v.description }
func (v *version) GetRelease() string     { return v.release }
func (v *version) GetBuild() string       { return v.build }
func (v *version) GetAuthor() string      { return v.author }
func (v *version) GetPrefix() string      { return v.prefix }
func (v *version) GetDate() string        { return v.date.Format(time.RFC3339) }
func (v *version) GetTime() time.Time     { return v.date }
func (v *version) GetLicenseName() string { return v.license.String() }

// GetHeader is a single line suitable for a --version flag's output.
func (v *version) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s, %s)", v.pkg, v.release, v.build, v.GetDate())
}

// GetInfo is the multi-line form used by --version when more detail is
// requested, mirroring the prefix/author/license block.
func (v *version) GetInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", v.GetHeader())
	if v.description != "" {
		fmt.Fprintf(&b, "%s\n", v.description)
	}
	if v.author != "" {
		fmt.Fprintf(&b, "author: %s\n", v.author)
	}
	fmt.Fprintf(&b, "license: %s\n", v.GetLicenseName())
	return b.String()
}
