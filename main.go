// @title JSR 后端 API
// @version 1.0
// @description JavaScript 学习资源目录的后端服务。

// @host localhost:3000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import "jsr_backend/cmd"

func main() {
	cmd.Execute()
}
