// SPDX-License-Identifier: MPL-2.0

package config

import (
	"strings"

	"github.com/serverless/standalone/internal/selfupdate"
)

// chinaTimeZones are the TZ values that imply the regional mirror under RegionAuto.
var chinaTimeZones = []string{
	"Asia/Shanghai",
	"Asia/Chongqing",
	"Asia/Harbin",
	"Asia/Urumqi",
	"Asia/Kashgar",
	"PRC",
}

// ResolveRegion turns the configured mode into the flag selfupdate consumes.
// getenv is os.Getenv in production.
func ResolveRegion(mode RegionMode, getenv func(string) string) selfupdate.Region {
	switch mode {
	case RegionChina:
		return selfupdate.RegionChina
	case RegionDefault:
		return selfupdate.RegionDefault
	case RegionAuto:
		if inChina(getenv) {
			return selfupdate.RegionChina
		}
	}
	return selfupdate.RegionDefault
}

func inChina(getenv func(string) string) bool {
	if strings.EqualFold(strings.TrimSpace(getenv("SLS_GEO_LOCATION")), "cn") {
		return true
	}
	tz := strings.TrimPrefix(strings.TrimSpace(getenv("TZ")), ":")
	for _, zone := range chinaTimeZones {
		if tz == zone {
			return true
		}
	}
	return false
}
