package service

import "yard-service/internal/model"

type Operation string

const (
	OpRequestCreate       Operation = "request.create"
	OpRequestList         Operation = "request.list"
	OpRequestAssign       Operation = "request.assign"
	OpRequestUpdateStatus Operation = "request.update_status"

	OpBayList           Operation = "yard.bay.list"
	OpBayCreate         Operation = "yard.bay.create"
	OpBayAssign         Operation = "yard.bay.assign"
	OpMovementList      Operation = "yard.movement.list"
	OpMovementRecord    Operation = "yard.movement.record"
	OpQueueGet          Operation = "yard.queue.get"
	OpQueueReprioritize Operation = "yard.queue.reprioritize"

	OpTruckList    Operation = "fleet.truck.list"
	OpTruckCreate  Operation = "fleet.truck.create"
	OpDriverList   Operation = "fleet.driver.list"
	OpDriverCreate Operation = "fleet.driver.create"

	OpNotificationInbox  Operation = "notification.inbox"
	OpNotificationCreate Operation = "notification.create"

	OpUserList    Operation = "user.list"
	OpUserUpdate  Operation = "user.update"
	OpUserProfile Operation = "user.profile"

	OpDashboardLoader     Operation = "dashboard.loader"
	OpDashboardDispatcher Operation = "dashboard.dispatcher"
	OpDashboardSwitcher   Operation = "dashboard.switcher"
	OpDashboardDriver     Operation = "dashboard.driver"
	OpDashboardAdmin      Operation = "dashboard.admin"

	OpReportExport Operation = "report.export"
)

var (
	yardRoles     = []model.Role{model.RoleSwitcher, model.RoleDispatcher, model.RoleSupervisor, model.RoleAdmin}
	dispatchRoles = []model.Role{model.RoleDispatcher, model.RoleSupervisor, model.RoleAdmin}
	managerRoles  = []model.Role{model.RoleSupervisor, model.RoleAdmin}
)

// OperationRoles lists the roles allowed to invoke each operation.
var OperationRoles = map[Operation][]model.Role{
	OpRequestCreate:       {model.RoleLoader, model.RoleAdmin},
	OpRequestList:         {model.RoleLoader, model.RoleDispatcher, model.RoleSupervisor, model.RoleAdmin, model.RoleDriver},
	OpRequestAssign:       dispatchRoles,
	OpRequestUpdateStatus: {model.RoleLoader, model.RoleDispatcher, model.RoleSupervisor, model.RoleAdmin},

	OpBayList:           yardRoles,
	OpBayCreate:         managerRoles,
	OpBayAssign:         yardRoles,
	OpMovementList:      yardRoles,
	OpMovementRecord:    yardRoles,
	OpQueueGet:          yardRoles,
	OpQueueReprioritize: yardRoles,

	OpTruckList:    {model.RoleDispatcher, model.RoleSupervisor, model.RoleAdmin, model.RoleSwitcher},
	OpTruckCreate:  managerRoles,
	OpDriverList:   dispatchRoles,
	OpDriverCreate: managerRoles,

	OpNotificationInbox:  model.AllRoles,
	OpNotificationCreate: dispatchRoles,

	OpUserList:    {model.RoleAdmin},
	OpUserUpdate:  {model.RoleAdmin},
	OpUserProfile: model.AllRoles,

	OpDashboardLoader:     {model.RoleLoader},
	OpDashboardDispatcher: dispatchRoles,
	OpDashboardSwitcher:   {model.RoleSwitcher, model.RoleSupervisor, model.RoleAdmin},
	OpDashboardDriver:     {model.RoleDriver},
	OpDashboardAdmin:      {model.RoleAdmin},

	OpReportExport: managerRoles,
}

// Authorize returns ErrPermissionDenied unless the principal's role may run op.
// Unknown operations are denied.
func Authorize(principal model.Principal, op Operation) error {
	roles, ok := OperationRoles[op]
	if !ok || !principal.HasRole(roles...) {
		return ErrPermissionDenied
	}
	return nil
}
