// 包 version：构建期注入的版本信息
package version

// Commit：构建时通过 -ldflags "-X loc-sim/internal/version.Commit=..." 注入
var Commit = "dev"
