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

package reactor

import (
	"github.com/sabouaram/reactorhttp/errors"
)

const (
	ErrorSocketCreate errors.CodeError = iota + errors.MinPkgReactor
	ErrorSocketBind
	ErrorSocketListen
	ErrorEpollCreate
	ErrorEpollCtl
	ErrorEpollWait
	ErrorAcceptFailed
	ErrorMaxFDReached
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = errors.ExistInMapMessage(ErrorSocketCreate)
	errors.RegisterIdFctMessage(ErrorSocketCreate, getMessage)
}

func getMessage(code errors.CodeError) (message string) {
	switch code {
	case errors.UnknownError:
		return ""
	case ErrorSocketCreate:
		return "unable to create the listening socket"
	case ErrorSocketBind:
		return "unable to bind the listening socket"
	case ErrorSocketListen:
		return "unable to listen on the bound socket"
	case ErrorEpollCreate:
		return "unable to create the epoll instance"
	case ErrorEpollCtl:
		return "unable to register a file descriptor with epoll"
	case ErrorEpollWait:
		return "epoll_wait failed"
	case ErrorAcceptFailed:
		return "accept4 failed on the listening socket"
	case ErrorMaxFDReached:
		return "connection rejected: maximum concurrent connections reached"
	}
	return ""
}
