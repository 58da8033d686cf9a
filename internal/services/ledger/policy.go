package ledger

import "github.com/magabrotheeeer/reseller-panel/internal/models"

// CanManage сообщает, может ли actor менять баланс target.
// Админ управляет любым чужим аккаунтом, реселлер — только прямыми потомками.
// Свой собственный баланс не может менять никто.
func CanManage(actor, target *models.Account) bool {
	if actor.ID == target.ID {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return target.ParentID != nil && *target.ParentID == actor.ID
}

// IsTransfer сообщает, списывается ли начисление с баланса инициатора.
// Начисления админа эмитируют кредиты, у остальных это перевод.
func IsTransfer(actor *models.Account) bool {
	return !actor.IsAdmin()
}

// CanCover сообщает, хватает ли у инициатора кредитов на начисление amount.
func CanCover(actor *models.Account, amount int64) bool {
	if !IsTransfer(actor) || amount <= 0 {
		return true
	}
	return actor.Credits >= amount
}
