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

package config

import (
	"fmt"
	"strconv"
)

// FromPositional builds a Config from the legacy "<port> <edge_triggered>"
// argument form, binding on all interfaces and serving docRoot as-is. It
// exists alongside the viper/file form for compatibility with scripts
// that invoke the server the old way.
func FromPositional(port, edgeTriggered, docRoot string) (Config, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return Config{}, ErrorConfigParsePositional.Error(fmt.Errorf("invalid port %q", port))
	}

	et, err := strconv.ParseBool(edgeTriggered)
	if err != nil {
		return Config{}, ErrorConfigParsePositional.Error(fmt.Errorf("invalid edge-triggered flag %q", edgeTriggered))
	}

	c := Default()
	c.Bind = fmt.Sprintf("0.0.0.0:%d", p)
	c.EdgeTriggered = et
	c.DocRoot = docRoot
	return c, nil
}
