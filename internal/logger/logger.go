package logger

import "go.uber.org/zap"

// New はアプリ共通のzapロガーを作る。
// devは読みやすい出力、それ以外はJSON。
func New(goEnv string) (*zap.Logger, error) {
	if goEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
