package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/kizito-simon15/montessori-sub000/apps/api/echo"
	"github.com/kizito-simon15/montessori-sub000/core/school"
)

var (
	errUnknownRole   = errors.New("unknown role")
	errStaffInactive = errors.New("staff member is not active")
)

// token prints a signed API token for the staff member.
func (cli *commandLine) token(staffID int64, role string) error {
	if !echoapi.ValidRole(role) {
		return errUnknownRole
	}
	stf, err := cli.school.GetStaff(context.Background(), staffID)
	if err != nil {
		return err
	}
	if stf.Status != school.StatusActive {
		return errStaffInactive
	}
	token, err := echoapi.GenerateToken(echoapi.NewClaims(stf, role, cli.conf), cli.conf.SecretKey)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
