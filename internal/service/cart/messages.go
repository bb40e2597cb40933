package cart

import "storefront/internal/domain"

var (
	msgFetchFailed  = domain.Failure("Erro", "Não foi possível carregar o carrinho.")
	msgAddFailed    = domain.Failure("Erro", "Não foi possível adicionar o produto ao carrinho.")
	msgUpdateFailed = domain.Failure("Erro", "Não foi possível atualizar a quantidade.")
	msgRemoveFailed = domain.Failure("Erro", "Não foi possível remover o item.")
	msgClearFailed  = domain.Failure("Erro", "Não foi possível limpar o carrinho.")

	msgRemoved = domain.Info("Item removido", "Item removido do carrinho com sucesso.")
	msgCleared = domain.Info("Carrinho limpo", "Todos os itens foram removidos do carrinho.")
)
