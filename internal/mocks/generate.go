package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Provider --dir ../usecase --output usecase/provider --outpkg providermock --filename provider_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name ScoreCache --dir ../usecase --output usecase/scorecache --outpkg scorecachemock --filename score_cache_mock.go
