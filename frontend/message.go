// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package frontend

import "fmt"

const (
	PackageName       = "tn3270"
	CommandReplayName = "tn3270-replay"

	VersionInfo = `Copyright (c) 2022~2024 wangqi ericwq057@qq.com
This is free software: you are free to change and redistribute it.
There is NO WARRANTY, to the extent permitted by law.

3270 screen engine replay tool
`
)

var (
	BuildVersion string // build version
	GoVersion    string // Go version
	BuildTime    string // build time
	GitCommit    string // git commit id
	GitBranch    string // git branch name
)

func PrintVersion() {
	fmt.Printf("version   \t: %s\n", BuildVersion)
	fmt.Printf("go version\t: %s\n", GoVersion)
	fmt.Printf("build time\t: %s\n", BuildTime)
	fmt.Printf("git commit\t: %s\n", GitCommit)
	fmt.Printf("git branch\t: %s\n\n", GitBranch)
	fmt.Print(VersionInfo)
}

// PrintUsage prints the hint, then the usage text if any.
func PrintUsage(hint string, usage ...string) {
	if hint != "" {
		var header string
		if len(usage) != 0 {
			header = "Hints: "
		}
		fmt.Printf("%s%s\n", header, hint)
	}
	if len(usage) > 0 {
		fmt.Printf("%s", usage[0])
	}
}
