package nostd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ShortAddress 截短链上地址用于展示：0xabcd12...7890
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		if addr == "" {
			return "No Addr"
		}
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

func SafePathJoin(baseDir, userInput string) (string, error) {
	cleanedPath := filepath.Clean(userInput)
	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	absFilePath, err := filepath.Abs(filepath.Join(absBaseDir, cleanedPath))
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absFilePath, absBaseDir) {
		return "", fmt.Errorf("invalid file path: %s", userInput)
	}
	return absFilePath, nil
}
